// internal/core/metrics/service.go
package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"go.uber.org/zap"
)

// Service calcula as métricas de inadimplência sobre os boletos limpos.
// Salvo indicação em contrário, as operações consideram apenas os boletos
// com categoria OPEN.
type Service interface {
	MetricasGerais(boletos []domain.BoletoEnriquecido) domain.MetricasGerais
	MetricasPorBanco(boletos []domain.BoletoEnriquecido) []domain.MetricasBanco
	ExtremosBoletoAberto(boletos []domain.BoletoEnriquecido) domain.ExtremosBoleto
	EvolucaoTemporal(boletos []domain.BoletoEnriquecido) []domain.EvolucaoMensal
	MudancaDividaMensal(boletos []domain.BoletoEnriquecido) []domain.MudancaDivida
	TopPioras(mudancas []domain.MudancaDivida, n int) []domain.MudancaDivida
	TopMelhoras(mudancas []domain.MudancaDivida, n int) []domain.MudancaDivida
	TopDevedoresPorDivida(boletos []domain.BoletoEnriquecido, n int) []domain.DevedorRanking
	QualidadeDados(boletos []domain.BoletoEnriquecido) domain.QualidadeDados
}

type service struct {
	logger *zap.Logger
}

// NewService cria uma instância do serviço de métricas.
func NewService(logger *zap.Logger) Service {
	return &service{logger: logger}
}

// ---------------------- estatística básica ----------------------

func soma(valores []float64) float64 {
	var total float64
	for _, v := range valores {
		total += v
	}
	return total
}

func media(valores []float64) float64 {
	if len(valores) == 0 {
		return 0
	}
	return soma(valores) / float64(len(valores))
}

// percentil calcula o quantil q em [0,1] por interpolação linear entre
// os vizinhos na lista ordenada.
func percentil(valores []float64, q float64) float64 {
	n := len(valores)
	if n == 0 {
		return 0
	}
	ordenados := make([]float64, n)
	copy(ordenados, valores)
	sort.Float64s(ordenados)
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

func mediana(valores []float64) float64 {
	return percentil(valores, 0.5)
}

// desvioPadraoAmostral usa o divisor n-1 e devolve 0 com menos de duas
// observações.
func desvioPadraoAmostral(valores []float64) float64 {
	n := len(valores)
	if n < 2 {
		return 0
	}
	m := media(valores)
	var somaQuadrados float64
	for _, v := range valores {
		desvio := v - m
		somaQuadrados += desvio * desvio
	}
	return math.Sqrt(somaQuadrados / float64(n-1))
}

// moda devolve o valor mais frequente; empates são resolvidos pelo menor
// valor.
func moda(valores []float64) float64 {
	if len(valores) == 0 {
		return 0
	}
	contagens := make(map[float64]int)
	for _, v := range valores {
		contagens[v]++
	}
	distintos := make([]float64, 0, len(contagens))
	for v := range contagens {
		distintos = append(distintos, v)
	}
	sort.Float64s(distintos)
	melhor := distintos[0]
	melhorQtd := contagens[melhor]
	for _, v := range distintos[1:] {
		if contagens[v] > melhorQtd {
			melhor = v
			melhorQtd = contagens[v]
		}
	}
	return melhor
}

// ---------------------- seleção e agrupamento ----------------------

func filtrarAbertos(boletos []domain.BoletoEnriquecido) []domain.BoletoEnriquecido {
	var abertos []domain.BoletoEnriquecido
	for _, b := range boletos {
		if b.StatusCategoria == domain.CategoriaAberta {
			abertos = append(abertos, b)
		}
	}
	return abertos
}

func valoresValidos(boletos []domain.BoletoEnriquecido) []float64 {
	var valores []float64
	for _, b := range boletos {
		if b.ValorValido {
			valores = append(valores, b.ValorFloat)
		}
	}
	return valores
}

// somaPorDevedor acumula a dívida total por devedor e guarda o primeiro
// boleto de cada um para os campos descritivos.
func somaPorDevedor(boletos []domain.BoletoEnriquecido) (map[string]float64, map[string]domain.BoletoEnriquecido) {
	totais := make(map[string]float64)
	primeiro := make(map[string]domain.BoletoEnriquecido)
	for _, b := range boletos {
		if _, ok := primeiro[b.PersonID]; !ok {
			primeiro[b.PersonID] = b
		}
		totais[b.PersonID] += b.ValorFloat
	}
	return totais, primeiro
}

func chavesOrdenadas(totais map[string]float64) []string {
	ids := make([]string, 0, len(totais))
	for id := range totais {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// statusMaisComum devolve o status normalizado mais frequente; empates
// são resolvidos pela menor string.
func statusMaisComum(boletos []domain.BoletoEnriquecido) string {
	contagens := make(map[string]int)
	for _, b := range boletos {
		contagens[b.StatusNorm]++
	}
	if len(contagens) == 0 {
		return ""
	}
	distintos := make([]string, 0, len(contagens))
	for st := range contagens {
		distintos = append(distintos, st)
	}
	sort.Strings(distintos)
	melhor := distintos[0]
	melhorQtd := contagens[melhor]
	for _, st := range distintos[1:] {
		if contagens[st] > melhorQtd {
			melhor = st
			melhorQtd = contagens[st]
		}
	}
	return melhor
}

// ---------------------- métricas gerais ----------------------

// MetricasGerais calcula os KPIs consolidados dos boletos em aberto.
func (s *service) MetricasGerais(boletos []domain.BoletoEnriquecido) domain.MetricasGerais {
	abertos := filtrarAbertos(boletos)
	if len(abertos) == 0 {
		return domain.MetricasGerais{}
	}

	valores := valoresValidos(abertos)
	totais, primeiro := somaPorDevedor(abertos)

	m := domain.MetricasGerais{
		TotalDevedoresUnicos: len(totais),
		TotalBoletosEmAberto: len(abertos),
		SomaDividaEmAberto:   soma(valores),
		ValorMedio:           media(valores),
		ValorMediana:         mediana(valores),
		ValorModa:            moda(valores),
		ValorDesvioPadrao:    desvioPadraoAmostral(valores),
		ValorP90:             percentil(valores, 0.90),
		ValorP95:             percentil(valores, 0.95),
	}
	if m.TotalDevedoresUnicos > 0 {
		m.TicketMedioEmAberto = m.SomaDividaEmAberto / float64(m.TotalDevedoresUnicos)
	}

	// percorrendo os devedores em ordem crescente de person_id, a
	// comparação estrita deixa o menor id vencer os empates
	ids := chavesOrdenadas(totais)
	maiorID, menorID := ids[0], ids[0]
	for _, id := range ids[1:] {
		if totais[id] > totais[maiorID] {
			maiorID = id
		}
		if totais[id] < totais[menorID] {
			menorID = id
		}
	}
	m.MaiorDivida = montarDevedorExtremo(maiorID, totais[maiorID], primeiro)
	m.MenorDivida = montarDevedorExtremo(menorID, totais[menorID], primeiro)

	s.logger.Debug("métricas gerais calculadas",
		zap.Int("devedores_unicos", m.TotalDevedoresUnicos),
		zap.Float64("soma_em_aberto", m.SomaDividaEmAberto))
	return m
}

func montarDevedorExtremo(id string, divida float64, primeiro map[string]domain.BoletoEnriquecido) domain.DevedorExtremo {
	b := primeiro[id]
	return domain.DevedorExtremo{
		PersonID: id,
		Nome:     b.NomePagador,
		PenaAgua: b.PenaAgua,
		Divida:   divida,
	}
}

// ---------------------- métricas por banco ----------------------

// MetricasPorBanco agrupa os boletos em aberto por banco normalizado e
// ordena pela soma da dívida em ordem decrescente.
func (s *service) MetricasPorBanco(boletos []domain.BoletoEnriquecido) []domain.MetricasBanco {
	abertos := filtrarAbertos(boletos)
	grupos := make(map[string][]domain.BoletoEnriquecido)
	for _, b := range abertos {
		grupos[b.BancoNorm] = append(grupos[b.BancoNorm], b)
	}

	resultado := make([]domain.MetricasBanco, 0, len(grupos))
	for banco, grupo := range grupos {
		valores := valoresValidos(grupo)
		devedores := make(map[string]bool)
		for _, b := range grupo {
			devedores[b.PersonID] = true
		}

		mb := domain.MetricasBanco{
			Banco:              banco,
			SomaDivida:         soma(valores),
			ValorMedio:         media(valores),
			ValorMediana:       mediana(valores),
			ValorDesvioPadrao:  desvioPadraoAmostral(valores),
			QtdBoletos:         len(grupo),
			QtdDevedoresUnicos: len(devedores),
			ValorP90:           percentil(valores, 0.90),
			ValorP95:           percentil(valores, 0.95),
		}
		if mb.QtdDevedoresUnicos > 0 {
			mb.TicketMedio = mb.SomaDivida / float64(mb.QtdDevedoresUnicos)
		}
		resultado = append(resultado, mb)
	}

	sort.Slice(resultado, func(i, j int) bool {
		if resultado[i].SomaDivida != resultado[j].SomaDivida {
			return resultado[i].SomaDivida > resultado[j].SomaDivida
		}
		return resultado[i].Banco < resultado[j].Banco
	})
	return resultado
}

// ---------------------- extremos de boleto ----------------------

// ExtremosBoletoAberto localiza o boleto em aberto de maior e de menor
// valor entre os que têm valor válido.
func (s *service) ExtremosBoletoAberto(boletos []domain.BoletoEnriquecido) domain.ExtremosBoleto {
	var maior, menor *domain.BoletoEnriquecido
	for i := range boletos {
		b := &boletos[i]
		if b.StatusCategoria != domain.CategoriaAberta || !b.ValorValido {
			continue
		}
		if maior == nil || b.ValorFloat > maior.ValorFloat {
			maior = b
		}
		if menor == nil || b.ValorFloat < menor.ValorFloat {
			menor = b
		}
	}
	return domain.ExtremosBoleto{
		Maior: montarBoletoExtremo(maior),
		Menor: montarBoletoExtremo(menor),
	}
}

func montarBoletoExtremo(b *domain.BoletoEnriquecido) *domain.BoletoExtremo {
	if b == nil {
		return nil
	}
	return &domain.BoletoExtremo{
		Valor:       b.ValorFloat,
		Nome:        b.NomePagador,
		PenaAgua:    b.PenaAgua,
		Vencimento:  b.DataVencimentoDt,
		Banco:       b.BancoNorm,
		NumeroNosso: b.NumeroNosso,
	}
}

// ---------------------- evolução temporal ----------------------

// EvolucaoTemporal resume os boletos em aberto por mês de referência,
// ignorando linhas sem mês, em ordem cronológica.
func (s *service) EvolucaoTemporal(boletos []domain.BoletoEnriquecido) []domain.EvolucaoMensal {
	abertos := filtrarAbertos(boletos)
	grupos := make(map[string][]domain.BoletoEnriquecido)
	for _, b := range abertos {
		if b.MesReferencia == "" {
			continue
		}
		grupos[b.MesReferencia] = append(grupos[b.MesReferencia], b)
	}

	resultado := make([]domain.EvolucaoMensal, 0, len(grupos))
	for mes, grupo := range grupos {
		valores := valoresValidos(grupo)
		devedores := make(map[string]bool)
		for _, b := range grupo {
			devedores[b.PersonID] = true
		}
		resultado = append(resultado, domain.EvolucaoMensal{
			MesReferencia:          mes,
			SomaDividaOpen:         soma(valores),
			ValorMedioOpen:         media(valores),
			QtdBoletosOpen:         len(grupo),
			QtdDevedoresOpenUnicos: len(devedores),
		})
	}

	sort.Slice(resultado, func(i, j int) bool {
		return resultado[i].MesReferencia < resultado[j].MesReferencia
	})
	return resultado
}

// ---------------------- variação mensal por devedor ----------------------

// MudancaDividaMensal calcula, para cada devedor com presença em pelo
// menos dois meses, a variação da dívida entre os meses consecutivos em
// que ele apareceu.
func (s *service) MudancaDividaMensal(boletos []domain.BoletoEnriquecido) []domain.MudancaDivida {
	abertos := filtrarAbertos(boletos)

	porDevedor := make(map[string]map[string]float64)
	primeiro := make(map[string]domain.BoletoEnriquecido)
	for _, b := range abertos {
		if b.MesReferencia == "" {
			continue
		}
		if _, ok := primeiro[b.PersonID]; !ok {
			primeiro[b.PersonID] = b
		}
		if porDevedor[b.PersonID] == nil {
			porDevedor[b.PersonID] = make(map[string]float64)
		}
		porDevedor[b.PersonID][b.MesReferencia] += b.ValorFloat
	}

	ids := make([]string, 0, len(porDevedor))
	for id := range porDevedor {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var mudancas []domain.MudancaDivida
	for _, id := range ids {
		porMes := porDevedor[id]
		if len(porMes) < 2 {
			continue
		}
		meses := make([]string, 0, len(porMes))
		for mes := range porMes {
			meses = append(meses, mes)
		}
		sort.Strings(meses)

		ref := primeiro[id]
		for i := 1; i < len(meses); i++ {
			anterior, atual := meses[i-1], meses[i]
			dividaAnterior := porMes[anterior]
			dividaAtual := porMes[atual]
			mudanca := domain.MudancaDivida{
				PersonID:          id,
				PenaAgua:          ref.PenaAgua,
				Nome:              ref.NomePagador,
				MesAnterior:       anterior,
				MesAtual:          atual,
				DividaMesAnterior: dividaAnterior,
				DividaMesAtual:    dividaAtual,
				Delta:             dividaAtual - dividaAnterior,
			}
			if dividaAnterior > 0 {
				mudanca.PctDelta = mudanca.Delta / dividaAnterior * 100
			}
			mudancas = append(mudancas, mudanca)
		}
	}
	return mudancas
}

// TopPioras devolve as n maiores altas de dívida entre meses consecutivos.
func (s *service) TopPioras(mudancas []domain.MudancaDivida, n int) []domain.MudancaDivida {
	return topMudancas(mudancas, n, func(i, j domain.MudancaDivida) bool {
		return i.Delta > j.Delta
	})
}

// TopMelhoras devolve as n maiores quedas de dívida entre meses consecutivos.
func (s *service) TopMelhoras(mudancas []domain.MudancaDivida, n int) []domain.MudancaDivida {
	return topMudancas(mudancas, n, func(i, j domain.MudancaDivida) bool {
		return i.Delta < j.Delta
	})
}

func topMudancas(mudancas []domain.MudancaDivida, n int, antes func(i, j domain.MudancaDivida) bool) []domain.MudancaDivida {
	if n <= 0 || len(mudancas) == 0 {
		return nil
	}
	ordenadas := make([]domain.MudancaDivida, len(mudancas))
	copy(ordenadas, mudancas)
	sort.SliceStable(ordenadas, func(i, j int) bool {
		if ordenadas[i].Delta != ordenadas[j].Delta {
			return antes(ordenadas[i], ordenadas[j])
		}
		if ordenadas[i].PersonID != ordenadas[j].PersonID {
			return ordenadas[i].PersonID < ordenadas[j].PersonID
		}
		return ordenadas[i].MesAtual < ordenadas[j].MesAtual
	})
	if n > len(ordenadas) {
		n = len(ordenadas)
	}
	return ordenadas[:n]
}

// ---------------------- ranking por dívida ----------------------

// TopDevedoresPorDivida devolve o ranking dos n devedores com maior
// dívida total em aberto; empates são resolvidos pelo menor person_id.
func (s *service) TopDevedoresPorDivida(boletos []domain.BoletoEnriquecido, n int) []domain.DevedorRanking {
	if n <= 0 {
		return nil
	}
	abertos := filtrarAbertos(boletos)
	if len(abertos) == 0 {
		return nil
	}

	totais, primeiro := somaPorDevedor(abertos)
	porDevedor := make(map[string][]domain.BoletoEnriquecido)
	for _, b := range abertos {
		porDevedor[b.PersonID] = append(porDevedor[b.PersonID], b)
	}

	// pré-ordenado por person_id para que a ordenação estável preserve o
	// desempate crescente
	ids := chavesOrdenadas(totais)
	sort.SliceStable(ids, func(i, j int) bool {
		return totais[ids[i]] > totais[ids[j]]
	})
	if n > len(ids) {
		n = len(ids)
	}

	ranking := make([]domain.DevedorRanking, 0, n)
	for i, id := range ids[:n] {
		ref := primeiro[id]
		ranking = append(ranking, domain.DevedorRanking{
			Rank:            i + 1,
			PersonID:        id,
			PenaAgua:        ref.PenaAgua,
			Nome:            ref.NomePagador,
			DividaTotal:     totais[id],
			StatusMaisComum: statusMaisComum(porDevedor[id]),
		})
	}
	return ranking
}

// ---------------------- qualidade de dados ----------------------

type chaveNumeroNosso struct {
	banco  string
	numero string
}

type chaveNumeroSeu struct {
	banco      string
	numero     string
	vencimento time.Time
	valor      float64
}

// QualidadeDados resume validade de campos e duplicidades suspeitas do
// conjunto completo, inclusive boletos pagos.
func (s *service) QualidadeDados(boletos []domain.BoletoEnriquecido) domain.QualidadeDados {
	q := domain.QualidadeDados{TotalLinhas: len(boletos)}

	contagensNosso := make(map[chaveNumeroNosso]int)
	contagensSeu := make(map[chaveNumeroSeu]int)
	for _, b := range boletos {
		if !b.ValorValido {
			q.QtdLinhasInvalidasValor++
		}
		if !b.DataValida {
			q.QtdLinhasInvalidasData++
		}
		if numero := strings.TrimSpace(b.NumeroNosso); numero != "" {
			contagensNosso[chaveNumeroNosso{b.BancoNorm, numero}]++
		}
		if numero := strings.TrimSpace(b.NumeroSeu); numero != "" {
			contagensSeu[chaveNumeroSeu{b.BancoNorm, numero, b.DataVencimentoDt, b.ValorFloat}]++
		}
	}

	if q.TotalLinhas > 0 {
		q.PctLinhasInvalidasValor = float64(q.QtdLinhasInvalidasValor) / float64(q.TotalLinhas) * 100
		q.PctLinhasInvalidasData = float64(q.QtdLinhasInvalidasData) / float64(q.TotalLinhas) * 100
	}

	for _, cnt := range contagensNosso {
		if cnt > 1 {
			q.DuplicidadesBancoNumeroNosso += cnt - 1
		}
	}
	for _, cnt := range contagensSeu {
		if cnt > 1 {
			q.DuplicidadesBancoNumeroSeu += cnt - 1
		}
	}

	// até 10 exemplos de cada duplicidade, na ordem do conjunto
	for _, b := range boletos {
		numero := strings.TrimSpace(b.NumeroNosso)
		if numero != "" && contagensNosso[chaveNumeroNosso{b.BancoNorm, numero}] > 1 && len(q.ExemplosDupNosso) < 10 {
			q.ExemplosDupNosso = append(q.ExemplosDupNosso, domain.ExemploDuplicidade{
				Banco:       b.BancoNorm,
				Numero:      b.NumeroNosso,
				NomePagador: b.NomePagador,
				ValorFloat:  b.ValorFloat,
				Vencimento:  b.DataVencimentoDt,
			})
		}
		numero = strings.TrimSpace(b.NumeroSeu)
		if numero != "" && contagensSeu[chaveNumeroSeu{b.BancoNorm, numero, b.DataVencimentoDt, b.ValorFloat}] > 1 && len(q.ExemplosDupSeu) < 10 {
			q.ExemplosDupSeu = append(q.ExemplosDupSeu, domain.ExemploDuplicidade{
				Banco:       b.BancoNorm,
				Numero:      b.NumeroSeu,
				NomePagador: b.NomePagador,
				ValorFloat:  b.ValorFloat,
				Vencimento:  b.DataVencimentoDt,
			})
		}
	}

	s.logger.Debug("qualidade de dados avaliada",
		zap.Int("linhas", q.TotalLinhas),
		zap.Int("valores_invalidos", q.QtdLinhasInvalidasValor),
		zap.Int("datas_invalidas", q.QtdLinhasInvalidasData))
	return q
}
