// internal/app/runner.go
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joaovianaamr/Inadimplencia/internal/config"
	"github.com/joaovianaamr/Inadimplencia/internal/core/cleaning"
	"github.com/joaovianaamr/Inadimplencia/internal/core/metrics"
	"github.com/joaovianaamr/Inadimplencia/internal/core/recurrence"
	"github.com/joaovianaamr/Inadimplencia/internal/domain"
	"github.com/joaovianaamr/Inadimplencia/internal/export"
	"github.com/joaovianaamr/Inadimplencia/internal/ingest"
	"github.com/joaovianaamr/Inadimplencia/internal/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner amarra os serviços do pipeline de análise de inadimplência e
// executa as etapas na ordem: ingestão, limpeza, métricas,
// reincidência, relatórios e exportação.
type Runner struct {
	cfg          *config.Config
	logger       *zap.Logger
	classifier   *cleaning.StatusClassifier
	ingestor     ingest.Service
	limpeza      cleaning.Service
	metricas     metrics.Service
	reincidencia recurrence.Service
	exportador   export.Service
}

// NewRunner monta o runner com todos os serviços a partir da
// configuração informada.
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	classifier := cleaning.NewStatusClassifier(cfg.PaidStatus, cfg.OpenStatus, logger)
	return &Runner{
		cfg:          cfg,
		logger:       logger,
		classifier:   classifier,
		ingestor:     ingest.NewService(cfg.Encoding, logger),
		limpeza:      cleaning.NewService(classifier, logger),
		metricas:     metrics.NewService(logger),
		reincidencia: recurrence.NewService(logger),
		exportador:   export.NewService(cfg.CSVEncoding, logger),
	}
}

// Run executa uma análise completa. Cada execução recebe um
// identificador próprio que acompanha os logs e o rodapé do relatório.
func (r *Runner) Run() error {
	execucaoID := uuid.NewString()
	logger := r.logger.With(zap.String("execucao", execucaoID))

	logger.Info("sistema de análise de inadimplência iniciado")

	descartados := r.cfg.NormalizeFormats()
	if len(descartados) > 0 {
		logger.Warn("formatos de saída não suportados ignorados", zap.Strings("formatos", descartados))
	}
	logger.Info("formatos de saída", zap.Strings("formatos", r.cfg.Formats))
	if len(r.cfg.PaidStatus) > 0 {
		logger.Info("status PAGOS customizados", zap.Strings("status", r.cfg.PaidStatus))
	}
	if len(r.cfg.OpenStatus) > 0 {
		logger.Info("status EM ABERTO customizados", zap.Strings("status", r.cfg.OpenStatus))
	}

	diretorio, err := r.resolverDiretorioSaida()
	if err != nil {
		return err
	}
	logger.Info("diretório de saída resolvido", zap.String("diretorio", diretorio))

	logger.Info("ETAPA 1: carregando arquivos de boletos")
	boletos, faltantes, err := r.ingestor.LoadAll(r.cfg.Input)
	if err != nil {
		return err
	}
	logger.Info("linhas carregadas", zap.Int("total", len(boletos)))
	if len(faltantes) > 0 {
		logger.Warn("colunas obrigatórias ausentes, o processamento continuará mas pode haver erros",
			zap.Strings("colunas", faltantes))
	}

	logger.Info("ETAPA 2: limpando e normalizando dados")
	limpos := r.limpeza.CleanBoletos(boletos)
	limpos = r.limpeza.Deduplicate(limpos)
	logger.Info("linhas após limpeza e deduplicação", zap.Int("total", len(limpos)))
	r.logarDistribuicao(logger, limpos)

	logger.Info("ETAPA 3: calculando métricas de inadimplência")
	metricasGerais := r.metricas.MetricasGerais(limpos)
	porBanco := r.metricas.MetricasPorBanco(limpos)
	extremos := r.metricas.ExtremosBoletoAberto(limpos)
	evolucao := r.metricas.EvolucaoTemporal(limpos)
	mudancas := r.metricas.MudancaDividaMensal(limpos)
	pioras := r.metricas.TopPioras(mudancas, r.cfg.TopN)
	melhoras := r.metricas.TopMelhoras(mudancas, r.cfg.TopN)
	rankingDivida := r.metricas.TopDevedoresPorDivida(limpos, r.cfg.TopN)
	qualidade := r.metricas.QualidadeDados(limpos)
	logger.Info("métricas calculadas",
		zap.Int("devedores_unicos", metricasGerais.TotalDevedoresUnicos),
		zap.Int("boletos_em_aberto", metricasGerais.TotalBoletosEmAberto),
		zap.Float64("soma_divida_em_aberto", metricasGerais.SomaDividaEmAberto))

	logger.Info("ETAPA 4: analisando reincidência")
	detalheReincidencia := r.reincidencia.CalcularReincidencia(limpos)
	rankingReincidencia := r.reincidencia.TopDevedoresReincidentes(limpos, r.cfg.TopN)
	reincidenciaMensal := r.reincidencia.ReincidenciaPorMes(limpos)
	logger.Info("devedores analisados na reincidência", zap.Int("total", len(detalheReincidencia)))

	if r.cfg.HasFormat("html") {
		relatorio := report.NewService(execucaoID, logger)
		dadosRelatorio := report.Dados{
			Boletos:             limpos,
			Metricas:            metricasGerais,
			PorBanco:            porBanco,
			Extremos:            extremos,
			Evolucao:            evolucao,
			RankingDivida:       rankingDivida,
			RankingReincidencia: rankingReincidencia,
			ReincidenciaMensal:  reincidenciaMensal,
			TopPioras:           pioras,
			TopMelhoras:         melhoras,
			Qualidade:           qualidade,
			StatusDesconhecidos: r.classifier.UnknownStatuses(),
		}

		logger.Info("ETAPA 5: gerando gráficos")
		if err := relatorio.GerarGraficos(dadosRelatorio, diretorio); err != nil {
			return err
		}

		logger.Info("ETAPA 6: gerando relatório HTML")
		if err := relatorio.GerarRelatorioHTML(dadosRelatorio, diretorio); err != nil {
			return err
		}
	}

	if r.cfg.HasFormat("csv") || r.cfg.HasFormat("xlsx") {
		logger.Info("ETAPA 7: exportando resumos")
		dadosExportacao := export.Dados{
			Boletos:             limpos,
			Evolucao:            evolucao,
			RankingDivida:       rankingDivida,
			RankingReincidencia: rankingReincidencia,
			DetalheReincidencia: detalheReincidencia,
			Mudancas:            mudancas,
			TopPioras:           pioras,
			TopMelhoras:         melhoras,
			Qualidade:           qualidade,
		}
		if err := r.exportador.ExportAll(dadosExportacao, diretorio, r.cfg.Formats); err != nil {
			return err
		}
	}

	logger.Info("processamento concluído com sucesso", zap.String("diretorio", diretorio))
	if r.cfg.HasFormat("html") {
		logger.Info("relatório HTML gravado",
			zap.String("arquivo", filepath.Join(diretorio, "relatorio_inadimplencia.html")))
		logger.Info("gráficos gravados",
			zap.String("diretorio", filepath.Join(diretorio, "charts")))
	}

	if desconhecidos := r.classifier.UnknownStatuses(); len(desconhecidos) > 0 {
		logger.Warn("status desconhecidos encontrados, revise as regras de classificação",
			zap.Int("quantidade", len(desconhecidos)),
			zap.Strings("status", desconhecidos))
	}
	if qualidade.QtdLinhasInvalidasValor > 0 || qualidade.QtdLinhasInvalidasData > 0 {
		logger.Warn("linhas com dados inválidos encontradas, verifique o relatório de qualidade",
			zap.Int("valores_invalidos", qualidade.QtdLinhasInvalidasValor),
			zap.Int("datas_invalidas", qualidade.QtdLinhasInvalidasData))
	}
	return nil
}

// resolverDiretorioSaida cria o diretório base se preciso e devolve o
// próximo subdiretório sequencial relatorio_N, onde N é o maior número
// já existente mais um.
func (r *Runner) resolverDiretorioSaida() (string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("erro ao criar o diretório de saída: %w", err)
	}

	entradas, err := os.ReadDir(r.cfg.OutputDir)
	if err != nil {
		return "", fmt.Errorf("erro ao listar o diretório de saída: %w", err)
	}

	maior := 0
	for _, entrada := range entradas {
		if !entrada.IsDir() {
			continue
		}
		resto := strings.TrimPrefix(entrada.Name(), "relatorio_")
		if resto == entrada.Name() {
			continue
		}
		if numero, err := strconv.Atoi(resto); err == nil && numero > maior {
			maior = numero
		}
	}

	diretorio := filepath.Join(r.cfg.OutputDir, fmt.Sprintf("relatorio_%d", maior+1))
	if err := os.MkdirAll(diretorio, 0o755); err != nil {
		return "", fmt.Errorf("erro ao criar o diretório do relatório: %w", err)
	}
	return diretorio, nil
}

func (r *Runner) logarDistribuicao(logger *zap.Logger, boletos []domain.BoletoEnriquecido) {
	contagem := make(map[domain.CategoriaStatus]int)
	for _, b := range boletos {
		contagem[b.StatusCategoria]++
	}
	logger.Info("distribuição de status",
		zap.Int(string(domain.CategoriaPaga), contagem[domain.CategoriaPaga]),
		zap.Int(string(domain.CategoriaAberta), contagem[domain.CategoriaAberta]),
		zap.Int(string(domain.CategoriaDesconhecida), contagem[domain.CategoriaDesconhecida]))
}
