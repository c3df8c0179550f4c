package cleaning

import (
	"sort"
	"strings"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"go.uber.org/zap"
)

// Status padrão considerados como pagos.
var defaultPaidStatus = []string{
	"PAGO NO DIA",
	"PAGO",
	"LIQUIDADO",
	"BAIXADO",
	"QUITADO",
	"PAGO EM DIA",
}

// Status padrão considerados como em aberto.
var defaultOpenStatus = []string{
	"A VENCER / VENCIDO",
	"VENCIDO",
	"EM ABERTO",
	"ABERTO",
	"A VENCER",
	"PENDENTE",
}

// StatusClassifier classifica status brutos de boletos em PAID, OPEN ou
// UNKNOWN. Os conjuntos de status podem ser substituídos por completo na
// construção. O acumulador de status desconhecidos pertence à instância e
// vale por uma execução do pipeline; não é seguro para uso concorrente.
type StatusClassifier struct {
	paid          map[string]bool
	open          map[string]bool
	desconhecidos map[string]bool
	logger        *zap.Logger
}

// NewStatusClassifier cria um classificador de status. Listas vazias mantêm
// os conjuntos padrão; listas não vazias substituem o conjunto por inteiro,
// sem mesclar com o padrão.
func NewStatusClassifier(paidList, openList []string, logger *zap.Logger) *StatusClassifier {
	c := &StatusClassifier{
		paid:          make(map[string]bool),
		open:          make(map[string]bool),
		desconhecidos: make(map[string]bool),
		logger:        logger,
	}

	if len(paidList) == 0 {
		paidList = defaultPaidStatus
	}
	if len(openList) == 0 {
		openList = defaultOpenStatus
	}

	for _, s := range paidList {
		if statusNorm := NormalizeStatus(s); statusNorm != "" {
			c.paid[statusNorm] = true
		}
	}
	for _, s := range openList {
		if statusNorm := NormalizeStatus(s); statusNorm != "" {
			c.open[statusNorm] = true
		}
	}
	return c
}

// NormalizeStatus normaliza um status: aparas, espaços colapsados, maiúsculas.
func NormalizeStatus(status string) string {
	s := strings.TrimSpace(status)
	s = espacosRegex.ReplaceAllString(s, " ")
	return strings.ToUpper(s)
}

// IsPaid verifica se um status indica pagamento.
func (c *StatusClassifier) IsPaid(status string) bool {
	statusNorm := NormalizeStatus(status)
	if statusNorm == "" {
		return false
	}
	return c.paid[statusNorm]
}

// IsOpen verifica se um status indica boleto em aberto.
func (c *StatusClassifier) IsOpen(status string) bool {
	statusNorm := NormalizeStatus(status)
	if statusNorm == "" {
		return false
	}
	return c.open[statusNorm]
}

// Classify classifica um status bruto e devolve o status normalizado e a
// categoria. Status vazio vira categoria UNKNOWN. Status presentes nos dois
// conjuntos classificam como pagos: o conjunto de pagos tem prioridade.
// Status fora dos dois conjuntos são acumulados para o relatório final.
func (c *StatusClassifier) Classify(status string) (string, domain.CategoriaStatus) {
	statusNorm := NormalizeStatus(status)

	if statusNorm == "" {
		return "", domain.CategoriaDesconhecida
	}

	if c.paid[statusNorm] {
		return statusNorm, domain.CategoriaPaga
	}
	if c.open[statusNorm] {
		return statusNorm, domain.CategoriaAberta
	}

	if !c.desconhecidos[statusNorm] {
		c.desconhecidos[statusNorm] = true
		c.logger.Warn("status desconhecido encontrado",
			zap.String("status_norm", statusNorm),
			zap.String("status_original", status))
	}
	return statusNorm, domain.CategoriaDesconhecida
}

// UnknownStatuses devolve os status não classificados vistos até aqui,
// ordenados para saída estável.
func (c *StatusClassifier) UnknownStatuses() []string {
	out := make([]string, 0, len(c.desconhecidos))
	for s := range c.desconhecidos {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
