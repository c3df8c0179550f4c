package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"go.uber.org/zap"
)

func quase(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func abertoMes(mes string, valor float64) domain.BoletoEnriquecido {
	return domain.BoletoEnriquecido{
		Boleto:          domain.Boleto{Banco: "SICREDI", NomePagador: "FULANO DE TAL", MesReferencia: mes},
		ValorFloat:      valor,
		ValorValido:     true,
		StatusCategoria: domain.CategoriaAberta,
	}
}

func TestFormatarMoeda(t *testing.T) {
	tests := []struct {
		valor    float64
		esperado string
	}{
		{0, "R$ 0,00"},
		{5.5, "R$ 5,50"},
		{999, "R$ 999,00"},
		{1161.41, "R$ 1.161,41"},
		{1234567.89, "R$ 1.234.567,89"},
		{-30, "R$ -30,00"},
		{-1234.5, "R$ -1.234,50"},
	}

	for _, tt := range tests {
		if got := formatarMoeda(tt.valor); got != tt.esperado {
			t.Errorf("formatarMoeda(%v) = %q, esperado %q", tt.valor, got, tt.esperado)
		}
	}
}

func TestFormatarContagem(t *testing.T) {
	tests := []struct {
		valor    int
		esperado string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{1234567, "1.234.567"},
		{-1234, "-1.234"},
	}

	for _, tt := range tests {
		if got := formatarContagem(tt.valor); got != tt.esperado {
			t.Errorf("formatarContagem(%d) = %q, esperado %q", tt.valor, got, tt.esperado)
		}
	}
}

func TestFormatarPercentual(t *testing.T) {
	if got := formatarPercentual(42.5); got != "42.50%" {
		t.Errorf("formatarPercentual(42.5) = %q", got)
	}
	if got := formatarPercentual(0); got != "0.00%" {
		t.Errorf("formatarPercentual(0) = %q", got)
	}
	if got := formatarPercentual(-20); got != "-20.00%" {
		t.Errorf("formatarPercentual(-20) = %q", got)
	}
}

func TestFormatarData(t *testing.T) {
	if got := formatarData(time.Time{}); got != "N/A" {
		t.Errorf("data zerada = %q, esperado N/A", got)
	}
	venc := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := formatarData(venc); got != "15/01/2025" {
		t.Errorf("formatarData = %q, esperado 15/01/2025", got)
	}
}

func TestTruncar(t *testing.T) {
	if got := truncar("CURTO", 30); got != "CURTO" {
		t.Errorf("truncar não deveria alterar texto curto: %q", got)
	}
	if got := truncar("ABCDE", 5); got != "ABCDE" {
		t.Errorf("truncar no limite exato = %q", got)
	}
	if got := truncar("ABCDEF", 5); got != "ABCDE..." {
		t.Errorf("truncar acima do limite = %q", got)
	}
}

func TestFaixasHistograma(t *testing.T) {
	rotulos, contagens := faixasHistograma([]float64{1, 2, 3, 4}, 2)
	if len(rotulos) != 2 || len(contagens) != 2 {
		t.Fatalf("esperava 2 faixas, veio %d/%d", len(rotulos), len(contagens))
	}
	if contagens[0] != 2 || contagens[1] != 2 {
		t.Errorf("contagens = %v, esperado [2 2]", contagens)
	}
	if rotulos[0] != "R$ 1,00" || rotulos[1] != "R$ 2,50" {
		t.Errorf("rotulos = %v", rotulos)
	}

	rotulos, contagens = faixasHistograma([]float64{5, 5, 5}, 50)
	if len(rotulos) != 1 || contagens[0] != 3 {
		t.Errorf("valores iguais deveriam virar faixa única: %v %v", rotulos, contagens)
	}
}

func TestEstatisticasCaixa(t *testing.T) {
	caixa := estatisticasCaixa([]float64{4, 1, 3, 2})
	esperado := []float64{1, 1.75, 2.5, 3.25, 4}
	for i := range esperado {
		if !quase(caixa[i], esperado[i]) {
			t.Errorf("posição %d = %v, esperado %v", i, caixa[i], esperado[i])
		}
	}
}

func TestValoresAbertosPorMes(t *testing.T) {
	pago := abertoMes("2025-01", 70)
	pago.StatusCategoria = domain.CategoriaPaga
	invalido := abertoMes("2025-01", 80)
	invalido.ValorValido = false
	semMes := abertoMes("", 90)

	boletos := []domain.BoletoEnriquecido{
		abertoMes("2025-01", 100),
		abertoMes("2025-02", 150),
		abertoMes("2025-01", 200),
		pago,
		invalido,
		semMes,
	}

	meses, grupos := valoresAbertosPorMes(boletos)
	if len(meses) != 2 || meses[0] != "2025-01" || meses[1] != "2025-02" {
		t.Fatalf("meses = %v", meses)
	}
	if len(grupos["2025-01"]) != 2 || len(grupos["2025-02"]) != 1 {
		t.Errorf("grupos = %v", grupos)
	}
}

func dadosCompletos() Dados {
	venc := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return Dados{
		Boletos: []domain.BoletoEnriquecido{
			abertoMes("2025-01", 261.41),
			abertoMes("2025-01", 900),
			abertoMes("2025-02", 450),
		},
		Metricas: domain.MetricasGerais{
			TotalDevedoresUnicos: 2,
			TotalBoletosEmAberto: 3,
			SomaDividaEmAberto:   1161.41,
			TicketMedioEmAberto:  580.7,
			ValorMedio:           387.13,
			ValorMediana:         450,
			MaiorDivida: domain.DevedorExtremo{
				PersonID: "436|MELQUESEDEQUE", Nome: "MELQUESEDEQUE", PenaAgua: "436", Divida: 900,
			},
			MenorDivida: domain.DevedorExtremo{
				PersonID: "77|JOAO", Nome: "JOAO", PenaAgua: "77", Divida: 261.41,
			},
		},
		PorBanco: []domain.MetricasBanco{{
			Banco: "SICREDI", SomaDivida: 1161.41, ValorMedio: 387.13,
			QtdBoletos: 3, QtdDevedoresUnicos: 2, TicketMedio: 580.7,
		}},
		Extremos: domain.ExtremosBoleto{
			Maior: &domain.BoletoExtremo{
				Valor: 900, Nome: "MELQUESEDEQUE", PenaAgua: "436",
				Vencimento: venc, Banco: "SICREDI", NumeroNosso: "123",
			},
		},
		Evolucao: []domain.EvolucaoMensal{
			{MesReferencia: "2025-01", SomaDividaOpen: 1161.41, ValorMedioOpen: 580.7, QtdBoletosOpen: 2, QtdDevedoresOpenUnicos: 2},
			{MesReferencia: "2025-02", SomaDividaOpen: 450, ValorMedioOpen: 450, QtdBoletosOpen: 1, QtdDevedoresOpenUnicos: 1},
		},
		RankingDivida: []domain.DevedorRanking{{
			Rank: 1, PersonID: "436|MELQUESEDEQUE", PenaAgua: "436",
			Nome: "MELQUESEDEQUE", DividaTotal: 900, StatusMaisComum: "VENCIDO",
		}},
		RankingReincidencia: []domain.DevedorReincidente{{
			Rank: 1, PersonID: "436|MELQUESEDEQUE", PenaAgua: "436",
			Nome: "MELQUESEDEQUE", QtdBoletosOpen: 2, MesesApareceu: 2, SomaOpen: 900,
		}},
		ReincidenciaMensal: []domain.ReincidenciaMensal{
			{MesReferencia: "2025-01", QtdDevedoresTotal: 2, QtdDevedoresNovos: 2},
			{MesReferencia: "2025-02", QtdDevedoresTotal: 1, QtdDevedoresNovos: 0, QtdDevedoresReincidentes: 1, PctReincidentes: 100},
		},
		TopPioras: []domain.MudancaDivida{{
			PersonID: "436|MELQUESEDEQUE", PenaAgua: "436", Nome: "MELQUESEDEQUE",
			MesAnterior: "2025-01", MesAtual: "2025-02",
			DividaMesAnterior: 100, DividaMesAtual: 150, Delta: 50, PctDelta: 50,
		}},
		Qualidade: domain.QualidadeDados{
			TotalLinhas:             3,
			QtdLinhasInvalidasValor: 1,
			PctLinhasInvalidasValor: 33.33,
		},
		StatusDesconhecidos: []string{"PROTESTADO"},
	}
}

func TestGerarRelatorioHTML(t *testing.T) {
	dir := t.TempDir()
	svc := NewService("abc-123", zap.NewNop())

	if err := svc.GerarRelatorioHTML(dadosCompletos(), dir); err != nil {
		t.Fatalf("GerarRelatorioHTML: %v", err)
	}

	conteudo, err := os.ReadFile(filepath.Join(dir, "relatorio_inadimplencia.html"))
	if err != nil {
		t.Fatalf("relatório não foi gravado: %v", err)
	}
	pagina := string(conteudo)

	esperados := []string{
		"Relatório de Inadimplência",
		"R$ 1.161,41",
		"MELQUESEDEQUE",
		"SICREDI",
		"15/01/2025",
		"33.33%",
		"+R$ 50,00",
		"PROTESTADO",
		"--paid-status",
		"abc-123",
	}
	for _, trecho := range esperados {
		if !strings.Contains(pagina, trecho) {
			t.Errorf("relatório não contém %q", trecho)
		}
	}

	if strings.Contains(pagina, "Menor Boleto em Aberto") {
		t.Error("seção do menor boleto não deveria aparecer sem dados")
	}
	if strings.Contains(pagina, "Gráficos Interativos") {
		t.Error("seção de gráficos não deveria aparecer sem gráficos gravados")
	}
}

func TestGerarRelatorioHTMLComGraficos(t *testing.T) {
	dir := t.TempDir()
	pasta := filepath.Join(dir, "charts")
	if err := os.MkdirAll(pasta, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pasta, "time_series_open_debt_total.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService("abc-123", zap.NewNop())
	if err := svc.GerarRelatorioHTML(dadosCompletos(), dir); err != nil {
		t.Fatalf("GerarRelatorioHTML: %v", err)
	}

	conteudo, err := os.ReadFile(filepath.Join(dir, "relatorio_inadimplencia.html"))
	if err != nil {
		t.Fatal(err)
	}
	pagina := string(conteudo)

	if !strings.Contains(pagina, "charts/time_series_open_debt_total.html") {
		t.Error("relatório não contém a ligação para o gráfico")
	}
	if !strings.Contains(pagina, "Evolução da Dívida Total em Aberto") {
		t.Error("relatório não contém o título do gráfico")
	}
}

func TestGerarGraficos(t *testing.T) {
	dir := t.TempDir()
	svc := NewService("abc-123", zap.NewNop())

	if err := svc.GerarGraficos(dadosCompletos(), dir); err != nil {
		t.Fatalf("GerarGraficos: %v", err)
	}

	arquivos := []string{
		"time_series_open_debt_total.html",
		"time_series_open_debtors_count.html",
		"time_series_open_bills_count.html",
		"time_series_open_mean_value.html",
		"bar_top10_debtors_total.html",
		"bar_top10_debtors_recurrence.html",
		"bar_new_vs_repeat_by_month.html",
		"boxplot_open_values_by_month.html",
		"hist_open_values.html",
	}
	for _, arquivo := range arquivos {
		if _, err := os.Stat(filepath.Join(dir, "charts", arquivo)); err != nil {
			t.Errorf("gráfico %s não foi gravado: %v", arquivo, err)
		}
	}

	conteudo, err := os.ReadFile(filepath.Join(dir, "charts", "time_series_open_debt_total.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(conteudo), "Evolução da Dívida Total em Aberto") {
		t.Error("gráfico não contém o título configurado")
	}
}

func TestGerarGraficosSemDados(t *testing.T) {
	dir := t.TempDir()
	svc := NewService("abc-123", zap.NewNop())

	if err := svc.GerarGraficos(Dados{}, dir); err != nil {
		t.Fatalf("GerarGraficos sem dados: %v", err)
	}

	entradas, err := os.ReadDir(filepath.Join(dir, "charts"))
	if err != nil {
		t.Fatalf("diretório de gráficos deveria existir: %v", err)
	}
	if len(entradas) != 0 {
		t.Errorf("nenhum gráfico deveria ser gravado, veio %d", len(entradas))
	}
}
