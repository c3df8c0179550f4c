// internal/ingest/service.go
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"github.com/schollz/closestmatch"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Service carrega os arquivos de boletos em CSV, XLSX ou XLS e os
// converte nas linhas brutas do domínio.
type Service interface {
	FindInputFiles(caminho string) ([]string, error)
	LoadFile(caminho string) ([]domain.Boleto, map[string]int, error)
	LoadAll(caminho string) ([]domain.Boleto, []string, error)
}

type service struct {
	encoding string
	logger   *zap.Logger
}

// NewService cria o serviço de ingestão com o encoding configurado para
// a leitura dos arquivos CSV.
func NewService(encoding string, logger *zap.Logger) Service {
	return &service{encoding: encoding, logger: logger}
}

// ---------------------- colunas canônicas ----------------------

// ColunasObrigatorias são as colunas canônicas exigidas nos arquivos de
// boletos. A ausência de alguma delas gera apenas aviso.
var ColunasObrigatorias = []string{
	"banco",
	"nome_pagador",
	"status",
	"numero_seu",
	"numero_nosso",
	"data_vencimento",
	"dda",
	"valor",
}

// colunasOpcionais podem ou não estar presentes nos arquivos.
var colunasOpcionais = []string{"pena_agua", "mes_referencia"}

var palavrasChaveColunas = map[string][]string{
	"banco":           {"BANCO", "INSTITUICAO"},
	"nome_pagador":    {"PAGADOR", "SACADO", "NOME"},
	"status":          {"STATUS", "SITUACAO"},
	"numero_seu":      {"SEU NUMERO", "NUMERO SEU"},
	"numero_nosso":    {"NOSSO NUMERO", "NUMERO NOSSO"},
	"data_vencimento": {"VENCIMENTO", "DATA VENC"},
	"dda":             {"DDA"},
	"valor":           {"VALOR", "VLR"},
	"pena_agua":       {"PENA AGUA", "PENA"},
	"mes_referencia":  {"MES REFERENCIA", "REFERENCIA", "COMPETENCIA"},
}

// tokensNA são os valores lidos como célula vazia.
var tokensNA = map[string]bool{
	"NULL": true,
	"null": true,
	"None": true,
	"N/A":  true,
	"n/a":  true,
}

var extensoesSuportadas = map[string]bool{".csv": true, ".xlsx": true, ".xls": true}

// ---------------------- utilitários comuns ----------------------

var naoAlfanumericoRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var espacosRegex = regexp.MustCompile(`\s+`)

func normalizarTexto(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = naoAlfanumericoRegex.ReplaceAllString(result, " ")
	result = espacosRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func limparNA(valor string) string {
	valor = strings.TrimSpace(valor)
	if tokensNA[valor] {
		return ""
	}
	return valor
}

// ---------------------- localização de arquivos ----------------------

// FindInputFiles resolve o caminho de entrada para a lista ordenada de
// arquivos suportados. Um arquivo único de formato não suportado é erro.
func (s *service) FindInputFiles(caminho string) ([]string, error) {
	info, err := os.Stat(caminho)
	if err != nil {
		return nil, fmt.Errorf("caminho de entrada não encontrado: %w", err)
	}

	if !info.IsDir() {
		if extensoesSuportadas[strings.ToLower(filepath.Ext(caminho))] {
			return []string{caminho}, nil
		}
		return nil, fmt.Errorf("arquivo %s não é um formato suportado (csv, xlsx ou xls)", caminho)
	}

	entradas, err := os.ReadDir(caminho)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar diretório de entrada: %w", err)
	}

	var arquivos []string
	for _, entrada := range entradas {
		if entrada.IsDir() {
			continue
		}
		if extensoesSuportadas[strings.ToLower(filepath.Ext(entrada.Name()))] {
			arquivos = append(arquivos, filepath.Join(caminho, entrada.Name()))
		}
	}
	sort.Strings(arquivos)

	s.logger.Info("arquivos de boletos encontrados",
		zap.Int("quantidade", len(arquivos)),
		zap.String("caminho", caminho))
	return arquivos, nil
}

// ---------------------- leitura de CSV ----------------------

// descobrirSeparador olha a primeira linha e escolhe entre vírgula e
// ponto e vírgula.
func descobrirSeparador(data []byte) rune {
	linha := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		linha = data[:idx]
	}
	if bytes.Count(linha, []byte{';'}) > bytes.Count(linha, []byte{','}) {
		return ';'
	}
	return ','
}

func (s *service) decodificarCSV(data []byte) ([][]string, error) {
	separador := descobrirSeparador(data)

	var origem io.Reader
	switch strings.ToLower(s.encoding) {
	case "latin-1", "iso-8859-1", "iso8859-1":
		origem = transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		origem = transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
	default:
		// utf-8-sig: descarta o BOM quando presente; bytes que não são
		// UTF-8 válido recuam para latin-1
		data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if utf8.Valid(data) {
			origem = bytes.NewReader(data)
		} else {
			s.logger.Warn("arquivo não é UTF-8 válido, tentando latin-1")
			origem = transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
		}
	}

	reader := csv.NewReader(origem)
	reader.Comma = separador
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ---------------------- leitura de planilhas ----------------------

func carregarPlanilha(data []byte) ([][]string, error) {
	reader := bytes.NewReader(data)

	// tenta xlsx
	f, err := excelize.OpenReader(reader)
	if err == nil {
		defer f.Close()
		nomes := f.GetSheetList()
		if len(nomes) == 0 {
			return nil, fmt.Errorf("o arquivo xlsx não contém planilhas")
		}
		return f.GetRows(nomes[0])
	}

	// tenta xls; cobre também xlsx com extensão errada
	reader.Seek(0, io.SeekStart)
	workbook, err := xls.OpenReader(reader)
	if err == nil {
		if len(workbook.GetSheets()) > 0 {
			sheet, err := workbook.GetSheet(0)
			if err != nil {
				return nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
			}
			var linhas [][]string
			for _, row := range sheet.GetRows() {
				var linha []string
				for _, cell := range row.GetCols() {
					linha = append(linha, cell.GetString())
				}
				linhas = append(linhas, linha)
			}
			return linhas, nil
		}
		return nil, fmt.Errorf("o arquivo .xls não contém planilhas")
	}

	return nil, fmt.Errorf("formato de planilha não reconhecido")
}

// ---------------------- resolução de colunas ----------------------

func encontrarLinhaCabecalho(linhas [][]string) int {
	maxLinhas := 40
	if len(linhas) < maxLinhas {
		maxLinhas = len(linhas)
	}
	for i := 0; i < maxLinhas; i++ {
		for _, celula := range linhas[i] {
			texto := normalizarTexto(celula)
			if strings.Contains(texto, "PAGADOR") || strings.Contains(texto, "VENCIMENTO") {
				return i
			}
		}
	}
	return 0
}

// resolverColunas mapeia cada coluna canônica para um índice do
// cabeçalho: primeiro por igualdade do texto normalizado, depois por
// palavra-chave e, como último recurso para as obrigatórias, por
// correspondência aproximada.
func resolverColunas(cabecalho []string) map[string]int {
	normalizados := make([]string, len(cabecalho))
	for i, h := range cabecalho {
		normalizados[i] = normalizarTexto(h)
	}

	todas := make([]string, 0, len(ColunasObrigatorias)+len(colunasOpcionais))
	todas = append(todas, ColunasObrigatorias...)
	todas = append(todas, colunasOpcionais...)

	colunas := make(map[string]int)
	ocupadas := make(map[int]bool)

	for _, canonica := range todas {
		alvo := normalizarTexto(canonica)
		for idx, nc := range normalizados {
			if !ocupadas[idx] && nc == alvo {
				colunas[canonica] = idx
				ocupadas[idx] = true
				break
			}
		}
	}

	for _, canonica := range todas {
		if _, ok := colunas[canonica]; ok {
			continue
		}
		for _, chave := range palavrasChaveColunas[canonica] {
			achou := false
			for idx, nc := range normalizados {
				if !ocupadas[idx] && nc != "" && strings.Contains(nc, chave) {
					colunas[canonica] = idx
					ocupadas[idx] = true
					achou = true
					break
				}
			}
			if achou {
				break
			}
		}
	}

	var livres []string
	indicePorNome := make(map[string]int)
	for idx, nc := range normalizados {
		if !ocupadas[idx] && nc != "" {
			livres = append(livres, nc)
			if _, existe := indicePorNome[nc]; !existe {
				indicePorNome[nc] = idx
			}
		}
	}
	if len(livres) > 0 {
		cm := closestmatch.New(livres, []int{3, 4})
		for _, canonica := range ColunasObrigatorias {
			if _, ok := colunas[canonica]; ok {
				continue
			}
			aproximado := cm.Closest(normalizarTexto(canonica))
			if aproximado == "" {
				continue
			}
			idx := indicePorNome[aproximado]
			if ocupadas[idx] {
				continue
			}
			colunas[canonica] = idx
			ocupadas[idx] = true
		}
	}

	return colunas
}

// ---------------------- montagem dos boletos ----------------------

func montarBoletos(linhas [][]string, indiceCabecalho int, colunas map[string]int, arquivo string) []domain.Boleto {
	valorDe := func(linha []string, canonica string) string {
		idx, ok := colunas[canonica]
		if !ok || idx >= len(linha) {
			return ""
		}
		return limparNA(linha[idx])
	}

	var boletos []domain.Boleto
	for i := indiceCabecalho + 1; i < len(linhas); i++ {
		linha := linhas[i]
		b := domain.Boleto{
			Banco:          valorDe(linha, "banco"),
			NomePagador:    valorDe(linha, "nome_pagador"),
			Status:         valorDe(linha, "status"),
			NumeroSeu:      valorDe(linha, "numero_seu"),
			NumeroNosso:    valorDe(linha, "numero_nosso"),
			DataVencimento: valorDe(linha, "data_vencimento"),
			DDA:            valorDe(linha, "dda"),
			Valor:          valorDe(linha, "valor"),
			PenaAgua:       valorDe(linha, "pena_agua"),
			MesReferencia:  valorDe(linha, "mes_referencia"),
			ArquivoOrigem:  arquivo,
		}
		if linhaVazia(b) {
			continue
		}
		boletos = append(boletos, b)
	}
	return boletos
}

func linhaVazia(b domain.Boleto) bool {
	return b.Banco == "" && b.NomePagador == "" && b.Status == "" &&
		b.NumeroSeu == "" && b.NumeroNosso == "" && b.DataVencimento == "" &&
		b.DDA == "" && b.Valor == "" && b.PenaAgua == "" && b.MesReferencia == ""
}

// ---------------------- carga ----------------------

// LoadFile lê um único arquivo e devolve os boletos e o mapa de colunas
// canônicas resolvidas.
func (s *service) LoadFile(caminho string) ([]domain.Boleto, map[string]int, error) {
	s.logger.Info("lendo arquivo", zap.String("arquivo", caminho))

	data, err := os.ReadFile(caminho)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao ler arquivo %s: %w", caminho, err)
	}

	var linhas [][]string
	switch strings.ToLower(filepath.Ext(caminho)) {
	case ".xlsx", ".xls":
		linhas, err = carregarPlanilha(data)
	default:
		linhas, err = s.decodificarCSV(data)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao processar arquivo %s: %w", caminho, err)
	}
	if len(linhas) == 0 {
		return nil, nil, fmt.Errorf("arquivo %s está vazio", caminho)
	}

	indiceCabecalho := encontrarLinhaCabecalho(linhas)
	colunas := resolverColunas(linhas[indiceCabecalho])
	boletos := montarBoletos(linhas, indiceCabecalho, colunas, filepath.Base(caminho))

	s.logger.Info("arquivo lido com sucesso",
		zap.String("arquivo", caminho),
		zap.Int("linhas", len(boletos)),
		zap.Int("colunas_mapeadas", len(colunas)))
	return boletos, colunas, nil
}

// LoadAll concatena os boletos de todos os arquivos do caminho de
// entrada. Arquivos com erro de leitura são pulados; nenhum arquivo
// carregado é erro fatal.
func (s *service) LoadAll(caminho string) ([]domain.Boleto, []string, error) {
	arquivos, err := s.FindInputFiles(caminho)
	if err != nil {
		return nil, nil, err
	}
	if len(arquivos) == 0 {
		return nil, nil, fmt.Errorf("nenhum arquivo de boletos encontrado em: %s", caminho)
	}

	presentes := make(map[string]bool)
	var todos []domain.Boleto
	carregados := 0
	for _, arquivo := range arquivos {
		boletos, colunas, err := s.LoadFile(arquivo)
		if err != nil {
			s.logger.Error("erro ao carregar arquivo, pulando",
				zap.String("arquivo", arquivo), zap.Error(err))
			continue
		}
		carregados++
		for canonica := range colunas {
			presentes[canonica] = true
		}
		todos = append(todos, boletos...)
	}
	if carregados == 0 {
		return nil, nil, fmt.Errorf("nenhum arquivo de boletos foi carregado com sucesso")
	}

	faltantes := ValidateRequiredColumns(presentes)
	s.logger.Info("arquivos concatenados",
		zap.Int("arquivos", carregados),
		zap.Int("linhas", len(todos)))
	return todos, faltantes, nil
}

// ValidateRequiredColumns devolve as colunas obrigatórias ausentes do
// conjunto de colunas resolvidas.
func ValidateRequiredColumns(presentes map[string]bool) []string {
	var faltantes []string
	for _, canonica := range ColunasObrigatorias {
		if !presentes[canonica] {
			faltantes = append(faltantes, canonica)
		}
	}
	return faltantes
}
