// internal/report/charts.go
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

const (
	larguraGrafico = "1100px"
	alturaGrafico  = "560px"
)

// titulosGraficos relaciona cada arquivo de gráfico ao título exibido
// na seção de gráficos do relatório HTML.
var titulosGraficos = map[string]string{
	"time_series_open_debt_total.html":    "Evolução da Dívida Total em Aberto",
	"time_series_open_debtors_count.html": "Evolução da Quantidade de Devedores Únicos",
	"time_series_open_bills_count.html":   "Evolução da Quantidade de Boletos em Aberto",
	"time_series_open_mean_value.html":    "Evolução do Valor Médio em Aberto",
	"bar_top10_debtors_total.html":        "Top Devedores por Dívida Total",
	"bar_top10_debtors_recurrence.html":   "Top Devedores por Reincidência",
	"bar_new_vs_repeat_by_month.html":     "Devedores Novos e Reincidentes por Mês",
	"boxplot_open_values_by_month.html":   "Distribuição de Valores em Aberto por Mês",
	"hist_open_values.html":               "Distribuição de Valores em Aberto",
}

type renderizavel interface {
	Render(w io.Writer) error
}

// GerarGraficos grava os gráficos interativos em <diretorio>/charts.
// Gráficos sem dados são pulados com um aviso no log.
func (s *service) GerarGraficos(dados Dados, diretorio string) error {
	s.logger.Info("gerando gráficos")

	pasta := filepath.Join(diretorio, "charts")
	if err := os.MkdirAll(pasta, 0o755); err != nil {
		return fmt.Errorf("erro ao criar o diretório de gráficos: %w", err)
	}

	if err := s.graficosTemporais(pasta, dados.Evolucao); err != nil {
		return err
	}
	if err := s.graficoRankingDivida(pasta, dados.RankingDivida); err != nil {
		return err
	}
	if err := s.graficoRankingReincidencia(pasta, dados.RankingReincidencia); err != nil {
		return err
	}
	if err := s.graficoNovosReincidentes(pasta, dados.ReincidenciaMensal); err != nil {
		return err
	}
	if err := s.graficoCaixaPorMes(pasta, dados.Boletos); err != nil {
		return err
	}
	return s.graficoHistograma(pasta, dados.Boletos)
}

func (s *service) salvarGrafico(grafico renderizavel, pasta, arquivo string) error {
	caminho := filepath.Join(pasta, arquivo)
	saida, err := os.Create(caminho)
	if err != nil {
		return fmt.Errorf("erro ao criar o arquivo do gráfico %s: %w", arquivo, err)
	}
	defer saida.Close()

	if err := grafico.Render(saida); err != nil {
		return fmt.Errorf("erro ao renderizar o gráfico %s: %w", arquivo, err)
	}
	s.logger.Info("gráfico salvo", zap.String("arquivo", caminho))
	return nil
}

func opcoesGlobais(titulo, eixoX, eixoY string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: titulo}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: titulo,
			Width:     larguraGrafico,
			Height:    alturaGrafico,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: eixoX}),
		charts.WithYAxisOpts(opts.YAxis{Name: eixoY}),
	}
}

// ---------------------- séries temporais ----------------------

func (s *service) graficosTemporais(pasta string, evolucao []domain.EvolucaoMensal) error {
	if len(evolucao) == 0 {
		s.logger.Warn("sem dados para os gráficos de evolução temporal")
		return nil
	}

	meses := make([]string, len(evolucao))
	for i, mes := range evolucao {
		meses[i] = mes.MesReferencia
	}

	series := []struct {
		arquivo string
		titulo  string
		eixoY   string
		valor   func(domain.EvolucaoMensal) interface{}
	}{
		{
			arquivo: "time_series_open_debt_total.html",
			titulo:  "Evolução da Dívida Total em Aberto",
			eixoY:   "Dívida Total em Aberto (R$)",
			valor:   func(e domain.EvolucaoMensal) interface{} { return e.SomaDividaOpen },
		},
		{
			arquivo: "time_series_open_debtors_count.html",
			titulo:  "Evolução da Quantidade de Devedores Únicos",
			eixoY:   "Quantidade de Devedores Únicos",
			valor:   func(e domain.EvolucaoMensal) interface{} { return e.QtdDevedoresOpenUnicos },
		},
		{
			arquivo: "time_series_open_bills_count.html",
			titulo:  "Evolução da Quantidade de Boletos em Aberto",
			eixoY:   "Quantidade de Boletos em Aberto",
			valor:   func(e domain.EvolucaoMensal) interface{} { return e.QtdBoletosOpen },
		},
		{
			arquivo: "time_series_open_mean_value.html",
			titulo:  "Evolução do Valor Médio em Aberto",
			eixoY:   "Valor Médio em Aberto (R$)",
			valor:   func(e domain.EvolucaoMensal) interface{} { return e.ValorMedioOpen },
		},
	}

	for _, serie := range series {
		pontos := make([]opts.LineData, len(evolucao))
		for i, mes := range evolucao {
			pontos[i] = opts.LineData{Value: serie.valor(mes)}
		}

		linha := charts.NewLine()
		linha.SetGlobalOptions(opcoesGlobais(serie.titulo, "Mês de Referência", serie.eixoY)...)
		linha.SetXAxis(meses).AddSeries(serie.eixoY, pontos)

		if err := s.salvarGrafico(linha, pasta, serie.arquivo); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------- rankings ----------------------

func (s *service) graficoRankingDivida(pasta string, ranking []domain.DevedorRanking) error {
	if len(ranking) == 0 {
		s.logger.Warn("sem dados para o gráfico de ranking por dívida")
		return nil
	}

	rotulos := make([]string, len(ranking))
	valores := make([]opts.BarData, len(ranking))
	for i, posicao := range ranking {
		rotulos[i] = posicao.PenaAgua + " - " + truncar(posicao.Nome, 30)
		valores[i] = opts.BarData{Value: posicao.DividaTotal}
	}

	titulo := fmt.Sprintf("Top %d Devedores por Dívida Total", len(ranking))
	barra := charts.NewBar()
	barra.SetGlobalOptions(opcoesGlobais(titulo, "Devedor", "Dívida Total (R$)")...)
	barra.SetXAxis(rotulos).AddSeries("Dívida Total", valores)

	return s.salvarGrafico(barra, pasta, "bar_top10_debtors_total.html")
}

func (s *service) graficoRankingReincidencia(pasta string, ranking []domain.DevedorReincidente) error {
	if len(ranking) == 0 {
		s.logger.Warn("sem dados para o gráfico de reincidência")
		return nil
	}

	rotulos := make([]string, len(ranking))
	valores := make([]opts.BarData, len(ranking))
	for i, posicao := range ranking {
		rotulos[i] = posicao.PenaAgua + " - " + truncar(posicao.Nome, 30)
		valores[i] = opts.BarData{Value: posicao.QtdBoletosOpen}
	}

	titulo := fmt.Sprintf("Top %d Devedores por Reincidência", len(ranking))
	barra := charts.NewBar()
	barra.SetGlobalOptions(opcoesGlobais(titulo, "Devedor", "Quantidade de Boletos em Aberto")...)
	barra.SetXAxis(rotulos).AddSeries("Boletos em Aberto", valores)

	return s.salvarGrafico(barra, pasta, "bar_top10_debtors_recurrence.html")
}

func (s *service) graficoNovosReincidentes(pasta string, mensal []domain.ReincidenciaMensal) error {
	if len(mensal) == 0 {
		s.logger.Warn("sem dados para o gráfico de devedores novos e reincidentes")
		return nil
	}

	meses := make([]string, len(mensal))
	novos := make([]opts.BarData, len(mensal))
	reincidentes := make([]opts.BarData, len(mensal))
	for i, mes := range mensal {
		meses[i] = mes.MesReferencia
		novos[i] = opts.BarData{Value: mes.QtdDevedoresNovos}
		reincidentes[i] = opts.BarData{Value: mes.QtdDevedoresReincidentes}
	}

	barra := charts.NewBar()
	barra.SetGlobalOptions(opcoesGlobais(
		"Devedores Novos e Reincidentes por Mês", "Mês de Referência", "Quantidade de Devedores")...)
	barra.SetXAxis(meses).
		AddSeries("Novos", novos).
		AddSeries("Reincidentes", reincidentes)

	return s.salvarGrafico(barra, pasta, "bar_new_vs_repeat_by_month.html")
}

// ---------------------- distribuição de valores ----------------------

func (s *service) graficoCaixaPorMes(pasta string, boletos []domain.BoletoEnriquecido) error {
	meses, grupos := valoresAbertosPorMes(boletos)
	if len(meses) == 0 {
		s.logger.Warn("sem dados para o gráfico de distribuição mensal")
		return nil
	}

	caixas := make([]opts.BoxPlotData, len(meses))
	for i, mes := range meses {
		caixas[i] = opts.BoxPlotData{Value: estatisticasCaixa(grupos[mes])}
	}

	caixa := charts.NewBoxPlot()
	caixa.SetGlobalOptions(opcoesGlobais(
		"Distribuição de Valores em Aberto por Mês", "Mês de Referência", "Valor em Aberto (R$)")...)
	caixa.SetXAxis(meses).AddSeries("Valores", caixas)

	return s.salvarGrafico(caixa, pasta, "boxplot_open_values_by_month.html")
}

func (s *service) graficoHistograma(pasta string, boletos []domain.BoletoEnriquecido) error {
	var valores []float64
	for _, b := range boletos {
		if b.StatusCategoria == domain.CategoriaAberta && b.ValorValido {
			valores = append(valores, b.ValorFloat)
		}
	}
	if len(valores) == 0 {
		s.logger.Warn("sem dados para o histograma de valores")
		return nil
	}

	rotulos, contagens := faixasHistograma(valores, 50)
	barras := make([]opts.BarData, len(contagens))
	for i, contagem := range contagens {
		barras[i] = opts.BarData{Value: contagem}
	}

	barra := charts.NewBar()
	barra.SetGlobalOptions(opcoesGlobais(
		"Distribuição de Valores em Aberto", "Valor em Aberto (R$)", "Frequência")...)
	barra.SetXAxis(rotulos).AddSeries("Frequência", barras)

	return s.salvarGrafico(barra, pasta, "hist_open_values.html")
}

func valoresAbertosPorMes(boletos []domain.BoletoEnriquecido) ([]string, map[string][]float64) {
	grupos := make(map[string][]float64)
	for _, b := range boletos {
		if b.StatusCategoria != domain.CategoriaAberta || !b.ValorValido || b.MesReferencia == "" {
			continue
		}
		grupos[b.MesReferencia] = append(grupos[b.MesReferencia], b.ValorFloat)
	}
	meses := make([]string, 0, len(grupos))
	for mes := range grupos {
		meses = append(meses, mes)
	}
	sort.Strings(meses)
	return meses, grupos
}

// estatisticasCaixa devolve mínimo, quartis e máximo no formato que o
// boxplot espera.
func estatisticasCaixa(valores []float64) []float64 {
	ordenados := make([]float64, len(valores))
	copy(ordenados, valores)
	sort.Float64s(ordenados)
	return []float64{
		ordenados[0],
		percentil(ordenados, 0.25),
		percentil(ordenados, 0.50),
		percentil(ordenados, 0.75),
		ordenados[len(ordenados)-1],
	}
}

// faixasHistograma divide os valores em faixas de largura igual e conta
// as ocorrências em cada uma. O rótulo é o início da faixa.
func faixasHistograma(valores []float64, n int) ([]string, []int) {
	menor, maior := valores[0], valores[0]
	for _, v := range valores[1:] {
		if v < menor {
			menor = v
		}
		if v > maior {
			maior = v
		}
	}
	if menor == maior {
		return []string{formatarMoeda(menor)}, []int{len(valores)}
	}

	largura := (maior - menor) / float64(n)
	contagens := make([]int, n)
	for _, v := range valores {
		faixa := int((v - menor) / largura)
		if faixa >= n {
			faixa = n - 1
		}
		contagens[faixa]++
	}
	rotulos := make([]string, n)
	for i := range rotulos {
		rotulos[i] = formatarMoeda(menor + float64(i)*largura)
	}
	return rotulos, contagens
}

func percentil(ordenados []float64, q float64) float64 {
	n := len(ordenados)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return ordenados[0]
	}
	posicao := q * float64(n-1)
	inferior := int(math.Floor(posicao))
	superior := int(math.Ceil(posicao))
	if inferior == superior {
		return ordenados[inferior]
	}
	fracao := posicao - float64(inferior)
	return ordenados[inferior] + fracao*(ordenados[superior]-ordenados[inferior])
}
