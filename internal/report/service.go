// internal/report/service.go
package report

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"github.com/metakeule/fmtdate"
	"go.uber.org/zap"
)

// Dados reúne os resultados das análises consumidos pelos gráficos e
// pelo relatório HTML executivo.
type Dados struct {
	Boletos             []domain.BoletoEnriquecido
	Metricas            domain.MetricasGerais
	PorBanco            []domain.MetricasBanco
	Extremos            domain.ExtremosBoleto
	Evolucao            []domain.EvolucaoMensal
	RankingDivida       []domain.DevedorRanking
	RankingReincidencia []domain.DevedorReincidente
	ReincidenciaMensal  []domain.ReincidenciaMensal
	TopPioras           []domain.MudancaDivida
	TopMelhoras         []domain.MudancaDivida
	Qualidade           domain.QualidadeDados
	StatusDesconhecidos []string
}

// Service gera os gráficos interativos e o relatório HTML da análise.
type Service interface {
	GerarGraficos(dados Dados, diretorio string) error
	GerarRelatorioHTML(dados Dados, diretorio string) error
}

type service struct {
	execucaoID string
	logger     *zap.Logger
}

// NewService cria o serviço de relatórios. O identificador da execução
// aparece no rodapé do relatório gerado.
func NewService(execucaoID string, logger *zap.Logger) Service {
	return &service{execucaoID: execucaoID, logger: logger}
}

// ---------------------- relatório HTML ----------------------

type ligacaoGrafico struct {
	Titulo   string
	Endereco string
}

type paginaRelatorio struct {
	GeradoEm            string
	ExecucaoID          string
	Metricas            domain.MetricasGerais
	PorBanco            []domain.MetricasBanco
	Extremos            domain.ExtremosBoleto
	Evolucao            []domain.EvolucaoMensal
	RankingDivida       []domain.DevedorRanking
	RankingReincidencia []domain.DevedorReincidente
	TopPioras           []domain.MudancaDivida
	TopMelhoras         []domain.MudancaDivida
	Qualidade           domain.QualidadeDados
	StatusDesconhecidos []string
	Graficos            []ligacaoGrafico
}

var funcoesRelatorio = template.FuncMap{
	"moeda":   formatarMoeda,
	"numero":  formatarContagem,
	"pct":     formatarPercentual,
	"data":    formatarData,
	"truncar": truncar,
}

var modeloRelatorio = template.Must(
	template.New("relatorio").Funcs(funcoesRelatorio).Parse(paginaHTML))

// GerarRelatorioHTML grava relatorio_inadimplencia.html no diretório
// informado. Os gráficos já gravados em <diretorio>/charts entram como
// ligações na seção final do relatório.
func (s *service) GerarRelatorioHTML(dados Dados, diretorio string) error {
	s.logger.Info("gerando relatório HTML")

	if err := os.MkdirAll(diretorio, 0o755); err != nil {
		return fmt.Errorf("erro ao criar o diretório do relatório: %w", err)
	}

	pagina := paginaRelatorio{
		GeradoEm:            fmtdate.Format("DD/MM/YYYY HH:mm:ss", time.Now()),
		ExecucaoID:          s.execucaoID,
		Metricas:            dados.Metricas,
		PorBanco:            dados.PorBanco,
		Extremos:            dados.Extremos,
		Evolucao:            dados.Evolucao,
		RankingDivida:       dados.RankingDivida,
		RankingReincidencia: dados.RankingReincidencia,
		TopPioras:           dados.TopPioras,
		TopMelhoras:         dados.TopMelhoras,
		Qualidade:           dados.Qualidade,
		StatusDesconhecidos: dados.StatusDesconhecidos,
		Graficos:            ligacoesGraficos(diretorio),
	}

	caminho := filepath.Join(diretorio, "relatorio_inadimplencia.html")
	arquivo, err := os.Create(caminho)
	if err != nil {
		return fmt.Errorf("erro ao criar o arquivo do relatório: %w", err)
	}
	defer arquivo.Close()

	if err := modeloRelatorio.Execute(arquivo, pagina); err != nil {
		return fmt.Errorf("erro ao renderizar o relatório: %w", err)
	}

	s.logger.Info("relatório HTML gerado", zap.String("arquivo", caminho))
	return nil
}

// ligacoesGraficos lista os gráficos presentes em <diretorio>/charts na
// ordem dos nomes de arquivo.
func ligacoesGraficos(diretorio string) []ligacaoGrafico {
	caminhos, err := filepath.Glob(filepath.Join(diretorio, "charts", "*.html"))
	if err != nil || len(caminhos) == 0 {
		return nil
	}
	ligacoes := make([]ligacaoGrafico, 0, len(caminhos))
	for _, caminho := range caminhos {
		nome := filepath.Base(caminho)
		titulo, ok := titulosGraficos[nome]
		if !ok {
			titulo = nome
		}
		ligacoes = append(ligacoes, ligacaoGrafico{Titulo: titulo, Endereco: "charts/" + nome})
	}
	return ligacoes
}

// ---------------------- formatação brasileira ----------------------

// formatarMoeda formata um valor como moeda brasileira (R$ 1.234,56).
func formatarMoeda(valor float64) string {
	texto := strconv.FormatFloat(math.Abs(valor), 'f', 2, 64)
	partes := strings.SplitN(texto, ".", 2)
	inteiro := separarMilhares(partes[0])
	if valor < 0 {
		inteiro = "-" + inteiro
	}
	return "R$ " + inteiro + "," + partes[1]
}

// formatarContagem formata um inteiro com separador de milhar (1.234).
func formatarContagem(valor int) string {
	if valor < 0 {
		return "-" + separarMilhares(strconv.Itoa(-valor))
	}
	return separarMilhares(strconv.Itoa(valor))
}

func formatarPercentual(valor float64) string {
	return strconv.FormatFloat(valor, 'f', 2, 64) + "%"
}

func formatarData(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return fmtdate.Format("DD/MM/YYYY", t)
}

func truncar(texto string, limite int) string {
	letras := []rune(texto)
	if len(letras) <= limite {
		return texto
	}
	return string(letras[:limite]) + "..."
}

func separarMilhares(digitos string) string {
	if len(digitos) <= 3 {
		return digitos
	}
	var b strings.Builder
	primeiro := len(digitos) % 3
	if primeiro > 0 {
		b.WriteString(digitos[:primeiro])
	}
	for i := primeiro; i < len(digitos); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digitos[i : i+3])
	}
	return b.String()
}
