package cleaning

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"github.com/metakeule/fmtdate"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Service define a interface do serviço de limpeza e normalização de boletos.
type Service interface {
	CleanBoletos(boletos []domain.Boleto) []domain.BoletoEnriquecido
	Deduplicate(boletos []domain.BoletoEnriquecido) []domain.BoletoEnriquecido
}

type service struct {
	classifier *StatusClassifier
	logger     *zap.Logger
}

// NewService cria o serviço de limpeza usando o classificador informado.
func NewService(classifier *StatusClassifier, logger *zap.Logger) Service {
	return &service{classifier: classifier, logger: logger}
}

// ---------------------- conversão de campos ----------------------

var espacosRegex = regexp.MustCompile(`\s+`)
var penaAguaRegex = regexp.MustCompile(`^\s*(\d+)\s*(.*)$`)

// Máscaras de data aceitas, na ordem de tentativa.
var mascarasData = []string{"YYYY-MM-DD", "DD/MM/YYYY", "DD-MM-YYYY"}

// ParseValor converte uma string de valor monetário para float.
// Aceita os formatos "1.161,41", "1161,41", "1161.41" e "1161".
func ParseValor(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0.0, false
	}

	if strings.Contains(s, ",") {
		// formato brasileiro: ponto separa milhar, vírgula separa decimal
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if strings.Count(s, ".") > 1 {
		// mais de um ponto sem vírgula: pontos são separadores de milhar
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0, false
	}
	return f, true
}

// ParseData converte uma string de data de vencimento em time.Time.
// Tenta os formatos YYYY-MM-DD, DD/MM/YYYY e DD-MM-YYYY, nesta ordem;
// o primeiro que casar vence.
func ParseData(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, mascara := range mascarasData {
		if dt, err := fmtdate.Parse(mascara, s); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

// ExtrairPenaAgua extrai a pena d'água de uma sequência de dígitos no início
// do nome do pagador: "436MELQUESEDEQUE ANTONIO CAXEADO" vira
// ("436", "MELQUESEDEQUE ANTONIO CAXEADO"). Sem dígitos no início, devolve
// código vazio e o nome apenas aparado.
func ExtrairPenaAgua(nomePagador string) (string, string) {
	nome := strings.TrimSpace(nomePagador)
	m := penaAguaRegex.FindStringSubmatch(nome)
	if m == nil {
		return "", nome
	}
	return m[1], strings.TrimSpace(m[2])
}

// NormalizarNome normaliza um nome para comparação: aparas, espaços
// colapsados, maiúsculas e acentos removidos.
func NormalizarNome(nome string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, nome)
	result = espacosRegex.ReplaceAllString(result, " ")
	return strings.ToUpper(strings.TrimSpace(result))
}

// CriarPersonID monta o identificador estável do devedor no formato
// "pena_agua|nome_normalizado".
func CriarPersonID(penaAgua, nome string) string {
	return strings.TrimSpace(penaAgua) + "|" + NormalizarNome(nome)
}

// DerivarMesReferencia deriva o mês de referência (YYYY-MM) da data de
// vencimento.
func DerivarMesReferencia(dataVencimento time.Time) string {
	if dataVencimento.IsZero() {
		return ""
	}
	return dataVencimento.Format("2006-01")
}

// ---------------------- pipeline de limpeza ----------------------

// CleanBoletos executa a limpeza completa: conversão de valores e datas,
// extração da pena d'água, derivação do mês de referência, classificação de
// status, criação do person_id, normalização do banco e deduplicação.
// Valores malformados nunca derrubam o pipeline: viram flags de validade.
func (svc *service) CleanBoletos(boletos []domain.Boleto) []domain.BoletoEnriquecido {
	svc.logger.Debug("iniciando limpeza", zap.Int("linhas", len(boletos)))

	enriquecidos := make([]domain.BoletoEnriquecido, 0, len(boletos))
	for _, b := range boletos {
		enriquecidos = append(enriquecidos, svc.enrich(b))
	}

	return svc.Deduplicate(enriquecidos)
}

func (svc *service) enrich(b domain.Boleto) domain.BoletoEnriquecido {
	e := domain.BoletoEnriquecido{Boleto: b}

	e.ValorFloat, e.ValorValido = ParseValor(e.Valor)
	e.DataVencimentoDt, e.DataValida = ParseData(e.DataVencimento)

	e.PenaAgua = strings.TrimSpace(e.PenaAgua)
	if e.PenaAgua == "" {
		pena, nomeLimpo := ExtrairPenaAgua(e.NomePagador)
		if pena != "" {
			e.PenaAgua = pena
			e.NomePagador = nomeLimpo
		}
	}

	e.MesReferencia = strings.TrimSpace(e.MesReferencia)
	if e.MesReferencia == "" && e.DataValida {
		e.MesReferencia = DerivarMesReferencia(e.DataVencimentoDt)
	}

	e.StatusNorm, e.StatusCategoria = svc.classifier.Classify(e.Status)
	e.PersonID = CriarPersonID(e.PenaAgua, e.NomePagador)

	if banco := strings.TrimSpace(e.Banco); banco != "" {
		e.BancoNorm = strings.ToUpper(banco)
	}

	return e
}

// ---------------------- deduplicação ----------------------

var prioridadeCategoria = map[domain.CategoriaStatus]int{
	domain.CategoriaAberta:       0,
	domain.CategoriaPaga:         1,
	domain.CategoriaDesconhecida: 2,
}

func prioridadeDe(c domain.CategoriaStatus) int {
	if p, ok := prioridadeCategoria[c]; ok {
		return p
	}
	return 3
}

// chaveValida reporta se um componente da chave de deduplicação carrega
// informação real. Os literais "nan" e "none" aparecem em arquivos gerados
// por outras ferramentas e contam como ausentes.
func chaveValida(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none":
		return false
	}
	return true
}

// Deduplicate mantém no máximo um boleto por par (pena d'água, mês de
// referência) válido. Entre duplicados vence a categoria de maior prioridade
// (OPEN antes de PAID antes de UNKNOWN antes de sem categoria) e, em empate,
// o maior valor. Boletos com chave inválida nunca são deduplicados e passam
// adiante intocados. A operação é idempotente.
func (svc *service) Deduplicate(boletos []domain.BoletoEnriquecido) []domain.BoletoEnriquecido {
	type chave struct {
		pena string
		mes  string
	}

	grupos := make(map[chave][]domain.BoletoEnriquecido)
	var ordem []chave
	var invalidos []domain.BoletoEnriquecido

	for _, b := range boletos {
		if !chaveValida(b.PenaAgua) || !chaveValida(b.MesReferencia) {
			invalidos = append(invalidos, b)
			continue
		}
		k := chave{pena: strings.TrimSpace(b.PenaAgua), mes: strings.TrimSpace(b.MesReferencia)}
		if _, ok := grupos[k]; !ok {
			ordem = append(ordem, k)
		}
		grupos[k] = append(grupos[k], b)
	}

	resultado := make([]domain.BoletoEnriquecido, 0, len(boletos))
	removidos := 0
	for _, k := range ordem {
		grupo := grupos[k]
		if len(grupo) > 1 {
			sort.SliceStable(grupo, func(i, j int) bool {
				pi, pj := prioridadeDe(grupo[i].StatusCategoria), prioridadeDe(grupo[j].StatusCategoria)
				if pi != pj {
					return pi < pj
				}
				return grupo[i].ValorFloat > grupo[j].ValorFloat
			})
			removidos += len(grupo) - 1
		}
		resultado = append(resultado, grupo[0])
	}

	if removidos > 0 {
		svc.logger.Info("boletos duplicados removidos na deduplicação",
			zap.Int("removidos", removidos))
	}

	return append(resultado, invalidos...)
}
