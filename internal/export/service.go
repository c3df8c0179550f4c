// internal/export/service.go
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Dados reúne as tabelas produzidas pelas análises para exportação.
type Dados struct {
	Boletos             []domain.BoletoEnriquecido
	Evolucao            []domain.EvolucaoMensal
	RankingDivida       []domain.DevedorRanking
	RankingReincidencia []domain.DevedorReincidente
	DetalheReincidencia []domain.ReincidenciaDevedor
	Mudancas            []domain.MudancaDivida
	TopPioras           []domain.MudancaDivida
	TopMelhoras         []domain.MudancaDivida
	Qualidade           domain.QualidadeDados
}

// Service exporta os resumos da análise em CSV e XLSX.
type Service interface {
	ExportAll(dados Dados, diretorio string, formatos []string) error
}

type service struct {
	csvEncoding string
	logger      *zap.Logger
}

// NewService cria o serviço de exportação com o encoding configurado
// para os arquivos CSV.
func NewService(csvEncoding string, logger *zap.Logger) Service {
	return &service{csvEncoding: csvEncoding, logger: logger}
}

type tabela struct {
	nome      string
	aba       string
	cabecalho []string
	linhas    [][]string
	sempre    bool
}

// ExportAll grava todas as tabelas nos formatos pedidos. Tabelas vazias
// são puladas, exceto o dump geral e o relatório de qualidade.
func (s *service) ExportAll(dados Dados, diretorio string, formatos []string) error {
	if err := os.MkdirAll(diretorio, 0o755); err != nil {
		return fmt.Errorf("erro ao criar diretório de exportação: %w", err)
	}

	querCSV, querXLSX := false, false
	for _, f := range formatos {
		switch f {
		case "csv":
			querCSV = true
		case "xlsx":
			querXLSX = true
		}
	}
	if !querCSV && !querXLSX {
		return nil
	}

	for _, t := range s.montarTabelas(dados) {
		if len(t.linhas) == 0 && !t.sempre {
			continue
		}
		if querCSV {
			caminho := filepath.Join(diretorio, t.nome+".csv")
			if err := s.escreverCSV(caminho, t); err != nil {
				return fmt.Errorf("erro ao exportar %s: %w", t.nome, err)
			}
			s.logger.Info("CSV exportado", zap.String("arquivo", caminho))
		}
		if querXLSX {
			caminho := filepath.Join(diretorio, t.nome+".xlsx")
			if err := s.escreverXLSX(caminho, t); err != nil {
				return fmt.Errorf("erro ao exportar %s: %w", t.nome, err)
			}
			s.logger.Info("XLSX exportado",
				zap.String("arquivo", caminho), zap.String("planilha", t.aba))
		}
	}

	s.logger.Info("todos os resumos exportados", zap.String("diretorio", diretorio))
	return nil
}

// ---------------------- montagem das tabelas ----------------------

func (s *service) montarTabelas(dados Dados) []tabela {
	abertos := filtrarAbertos(dados.Boletos)
	return []tabela{
		s.tabelaOverall(abertos),
		s.tabelaPorBanco(abertos),
		s.tabelaPorMes(dados.Evolucao),
		s.tabelaPorBancoMes(abertos),
		s.tabelaRankingDivida(dados.RankingDivida),
		s.tabelaRankingReincidencia(dados.RankingReincidencia),
		s.tabelaDetalheReincidencia(dados.DetalheReincidencia),
		s.tabelaMudancas("debt_change_month_over_month", "Mudanças", dados.Mudancas),
		s.tabelaMudancas("top10_pioras", "Top 10 Pioras", dados.TopPioras),
		s.tabelaMudancas("top10_melhoras", "Top 10 Melhoras", dados.TopMelhoras),
		s.tabelaQualidade(dados.Qualidade),
	}
}

func filtrarAbertos(boletos []domain.BoletoEnriquecido) []domain.BoletoEnriquecido {
	var abertos []domain.BoletoEnriquecido
	for _, b := range boletos {
		if b.StatusCategoria == domain.CategoriaAberta {
			abertos = append(abertos, b)
		}
	}
	return abertos
}

func (s *service) tabelaOverall(abertos []domain.BoletoEnriquecido) tabela {
	t := tabela{
		nome:   "open_summary_overall",
		aba:    "Geral",
		sempre: true,
		cabecalho: []string{
			"banco", "nome_pagador", "status", "numero_seu", "numero_nosso",
			"data_vencimento", "dda", "valor", "arquivo_origem", "pena_agua",
			"mes_referencia", "valor_float", "data_vencimento_dt",
			"status_norm", "status_categoria", "person_id",
		},
	}
	for _, b := range abertos {
		valorFloat := ""
		if b.ValorValido {
			valorFloat = s.formatarMoeda(b.ValorFloat)
		}
		vencimento := ""
		if b.DataValida {
			vencimento = b.DataVencimentoDt.Format("2006-01-02")
		}
		t.linhas = append(t.linhas, []string{
			b.BancoNorm, b.NomePagador, b.Status, b.NumeroSeu, b.NumeroNosso,
			b.DataVencimento, b.DDA, b.Valor, b.ArquivoOrigem, b.PenaAgua,
			b.MesReferencia, valorFloat, vencimento,
			b.StatusNorm, string(b.StatusCategoria), b.PersonID,
		})
	}
	return t
}

type agregadoBanco struct {
	somaValida float64
	qtdValida  int
	qtd        int
	devedores  map[string]bool
}

func (s *service) tabelaPorBanco(abertos []domain.BoletoEnriquecido) tabela {
	t := tabela{
		nome:      "open_summary_by_bank",
		aba:       "Por Banco",
		cabecalho: []string{"banco", "soma_divida", "valor_medio", "qtd_boletos", "qtd_devedores"},
	}

	grupos := make(map[string]*agregadoBanco)
	for _, b := range abertos {
		ag := grupos[b.BancoNorm]
		if ag == nil {
			ag = &agregadoBanco{devedores: make(map[string]bool)}
			grupos[b.BancoNorm] = ag
		}
		if b.ValorValido {
			ag.somaValida += b.ValorFloat
			ag.qtdValida++
		}
		ag.qtd++
		ag.devedores[b.PersonID] = true
	}

	bancos := make([]string, 0, len(grupos))
	for banco := range grupos {
		bancos = append(bancos, banco)
	}
	sort.Slice(bancos, func(i, j int) bool {
		gi, gj := grupos[bancos[i]], grupos[bancos[j]]
		if gi.somaValida != gj.somaValida {
			return gi.somaValida > gj.somaValida
		}
		return bancos[i] < bancos[j]
	})

	for _, banco := range bancos {
		ag := grupos[banco]
		medio := 0.0
		if ag.qtdValida > 0 {
			medio = ag.somaValida / float64(ag.qtdValida)
		}
		t.linhas = append(t.linhas, []string{
			banco,
			s.formatarMoeda(ag.somaValida),
			s.formatarMoeda(medio),
			strconv.Itoa(ag.qtd),
			strconv.Itoa(len(ag.devedores)),
		})
	}
	return t
}

func (s *service) tabelaPorMes(evolucao []domain.EvolucaoMensal) tabela {
	t := tabela{
		nome: "open_summary_by_month",
		aba:  "Por Mês",
		cabecalho: []string{
			"mes_referencia", "soma_divida_open", "valor_medio_open",
			"qtd_boletos_open", "qtd_devedores_open_unicos",
		},
	}
	for _, e := range evolucao {
		t.linhas = append(t.linhas, []string{
			e.MesReferencia,
			s.formatarMoeda(e.SomaDividaOpen),
			s.formatarMoeda(e.ValorMedioOpen),
			strconv.Itoa(e.QtdBoletosOpen),
			strconv.Itoa(e.QtdDevedoresOpenUnicos),
		})
	}
	return t
}

type chaveBancoMes struct {
	banco string
	mes   string
}

func (s *service) tabelaPorBancoMes(abertos []domain.BoletoEnriquecido) tabela {
	t := tabela{
		nome: "open_summary_by_bank_month",
		aba:  "Por Banco e Mês",
		cabecalho: []string{
			"banco", "mes_referencia", "soma_divida", "valor_medio",
			"qtd_boletos", "qtd_devedores",
		},
	}

	grupos := make(map[chaveBancoMes]*agregadoBanco)
	for _, b := range abertos {
		if b.MesReferencia == "" {
			continue
		}
		chave := chaveBancoMes{b.BancoNorm, b.MesReferencia}
		ag := grupos[chave]
		if ag == nil {
			ag = &agregadoBanco{devedores: make(map[string]bool)}
			grupos[chave] = ag
		}
		if b.ValorValido {
			ag.somaValida += b.ValorFloat
			ag.qtdValida++
		}
		ag.qtd++
		ag.devedores[b.PersonID] = true
	}

	chaves := make([]chaveBancoMes, 0, len(grupos))
	for chave := range grupos {
		chaves = append(chaves, chave)
	}
	sort.Slice(chaves, func(i, j int) bool {
		if chaves[i].banco != chaves[j].banco {
			return chaves[i].banco < chaves[j].banco
		}
		return chaves[i].mes < chaves[j].mes
	})

	for _, chave := range chaves {
		ag := grupos[chave]
		medio := 0.0
		if ag.qtdValida > 0 {
			medio = ag.somaValida / float64(ag.qtdValida)
		}
		t.linhas = append(t.linhas, []string{
			chave.banco,
			chave.mes,
			s.formatarMoeda(ag.somaValida),
			s.formatarMoeda(medio),
			strconv.Itoa(ag.qtd),
			strconv.Itoa(len(ag.devedores)),
		})
	}
	return t
}

func (s *service) tabelaRankingDivida(ranking []domain.DevedorRanking) tabela {
	t := tabela{
		nome: "debtors_ranking_by_total_debt",
		aba:  "Ranking Dívida",
		cabecalho: []string{
			"rank", "person_id", "pena_agua", "nome", "divida_total", "status_mais_comum",
		},
	}
	for _, r := range ranking {
		t.linhas = append(t.linhas, []string{
			strconv.Itoa(r.Rank),
			r.PersonID,
			r.PenaAgua,
			r.Nome,
			s.formatarMoeda(r.DividaTotal),
			r.StatusMaisComum,
		})
	}
	return t
}

func (s *service) tabelaRankingReincidencia(ranking []domain.DevedorReincidente) tabela {
	t := tabela{
		nome: "debtors_ranking_by_recurrence",
		aba:  "Ranking Reincidência",
		cabecalho: []string{
			"rank", "person_id", "pena_agua", "nome", "qtd_boletos_open",
			"meses_apareceu", "soma_open", "media_open", "status_mais_comum",
		},
	}
	for _, r := range ranking {
		t.linhas = append(t.linhas, []string{
			strconv.Itoa(r.Rank),
			r.PersonID,
			r.PenaAgua,
			r.Nome,
			strconv.Itoa(r.QtdBoletosOpen),
			strconv.Itoa(r.MesesApareceu),
			s.formatarMoeda(r.SomaOpen),
			s.formatarMoeda(r.MediaOpen),
			r.StatusMaisComum,
		})
	}
	return t
}

func (s *service) tabelaDetalheReincidencia(detalhe []domain.ReincidenciaDevedor) tabela {
	t := tabela{
		nome: "debtors_recurrence_detail",
		aba:  "Reincidência",
		cabecalho: []string{
			"person_id", "meses_apareceu", "meses_lista", "soma_open",
			"media_open", "qtd_boletos_open", "pena_agua", "nome", "status_mais_comum",
		},
	}
	for _, r := range detalhe {
		t.linhas = append(t.linhas, []string{
			r.PersonID,
			strconv.Itoa(r.MesesApareceu),
			r.MesesLista,
			s.formatarMoeda(r.SomaOpen),
			s.formatarMoeda(r.MediaOpen),
			strconv.Itoa(r.QtdBoletosOpen),
			r.PenaAgua,
			r.Nome,
			r.StatusMaisComum,
		})
	}
	return t
}

func (s *service) tabelaMudancas(nome, aba string, mudancas []domain.MudancaDivida) tabela {
	t := tabela{
		nome: nome,
		aba:  aba,
		cabecalho: []string{
			"person_id", "pena_agua", "nome", "mes_anterior", "mes_atual",
			"divida_mes_anterior", "divida_mes_atual", "delta", "pct_delta",
		},
	}
	for _, m := range mudancas {
		t.linhas = append(t.linhas, []string{
			m.PersonID,
			m.PenaAgua,
			m.Nome,
			m.MesAnterior,
			m.MesAtual,
			s.formatarMoeda(m.DividaMesAnterior),
			s.formatarMoeda(m.DividaMesAtual),
			s.formatarMoeda(m.Delta),
			s.formatarMoeda(m.PctDelta),
		})
	}
	return t
}

func (s *service) tabelaQualidade(q domain.QualidadeDados) tabela {
	return tabela{
		nome:      "data_quality_report",
		aba:       "Qualidade",
		sempre:    true,
		cabecalho: []string{"metrica", "valor"},
		linhas: [][]string{
			{"total_linhas", strconv.Itoa(q.TotalLinhas)},
			{"qtd_linhas_invalidas_valor", strconv.Itoa(q.QtdLinhasInvalidasValor)},
			{"pct_linhas_invalidas_valor", s.formatarMoeda(q.PctLinhasInvalidasValor)},
			{"qtd_linhas_invalidas_data", strconv.Itoa(q.QtdLinhasInvalidasData)},
			{"pct_linhas_invalidas_data", s.formatarMoeda(q.PctLinhasInvalidasData)},
			{"duplicidades_banco_numero_nosso", strconv.Itoa(q.DuplicidadesBancoNumeroNosso)},
			{"duplicidades_banco_numero_seu", strconv.Itoa(q.DuplicidadesBancoNumeroSeu)},
		},
	}
}

// ---------------------- formatação ----------------------

func (s *service) cp1252() bool {
	switch strings.ToLower(s.csvEncoding) {
	case "windows-1252", "cp1252":
		return true
	}
	return false
}

// formatarMoeda usa ponto decimal no modo UTF-8 e vírgula no modo
// windows-1252, que é o esperado pelo Excel brasileiro.
func (s *service) formatarMoeda(v float64) string {
	if s.cp1252() {
		return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// sanitizeForCSV remove quebras de linha e caracteres de controle da
// célula e apara os espaços das pontas.
func sanitizeForCSV(s string) string {
	if s == "" {
		return ""
	}

	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start >= end {
		return ""
	}

	var b strings.Builder
	b.Grow(end - start)

	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(s[i:end])
		i += size

		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// ---------------------- escrita ----------------------

func (s *service) escreverCSV(caminho string, t tabela) error {
	arquivo, err := os.Create(caminho)
	if err != nil {
		return err
	}
	defer arquivo.Close()

	var writer *csv.Writer
	if s.cp1252() {
		writer = csv.NewWriter(transform.NewWriter(arquivo, charmap.Windows1252.NewEncoder()))
	} else {
		// BOM para o Excel reconhecer UTF-8
		if _, err := arquivo.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return err
		}
		writer = csv.NewWriter(arquivo)
	}

	if err := escreverLinhaCSV(writer, t.cabecalho); err != nil {
		return err
	}
	for _, linha := range t.linhas {
		if err := escreverLinhaCSV(writer, linha); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func escreverLinhaCSV(writer *csv.Writer, linha []string) error {
	limpa := make([]string, len(linha))
	for i, celula := range linha {
		limpa[i] = sanitizeForCSV(celula)
	}
	return writer.Write(limpa)
}

func (s *service) escreverXLSX(caminho string, t tabela) error {
	var f *excelize.File

	if _, statErr := os.Stat(caminho); statErr == nil {
		aberto, err := excelize.OpenFile(caminho)
		if err != nil {
			return err
		}
		f = aberto
		if idx, err := f.GetSheetIndex(t.aba); err == nil && idx >= 0 {
			// substitui a planilha homônima preservando as demais
			antiga := t.aba + " (antiga)"
			if err := f.SetSheetName(t.aba, antiga); err != nil {
				return err
			}
			if _, err := f.NewSheet(t.aba); err != nil {
				return err
			}
			if err := f.DeleteSheet(antiga); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.aba); err != nil {
			return err
		}
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetList()[0], t.aba); err != nil {
			return err
		}
	}
	defer f.Close()

	if err := escreverLinhaPlanilha(f, t.aba, 1, t.cabecalho); err != nil {
		return err
	}
	for i, linha := range t.linhas {
		if err := escreverLinhaPlanilha(f, t.aba, i+2, linha); err != nil {
			return err
		}
	}
	return f.SaveAs(caminho)
}

func escreverLinhaPlanilha(f *excelize.File, aba string, numero int, valores []string) error {
	celula, err := excelize.CoordinatesToCellName(1, numero)
	if err != nil {
		return err
	}
	dados := make([]interface{}, len(valores))
	for i, v := range valores {
		dados[i] = v
	}
	return f.SetSheetRow(aba, celula, &dados)
}
