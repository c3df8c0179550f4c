// internal/core/recurrence/service.go
package recurrence

import (
	"sort"
	"strings"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"go.uber.org/zap"
)

// Service analisa a reincidência dos devedores ao longo dos meses,
// sempre sobre os boletos com categoria OPEN.
type Service interface {
	CalcularReincidencia(boletos []domain.BoletoEnriquecido) []domain.ReincidenciaDevedor
	TopDevedoresReincidentes(boletos []domain.BoletoEnriquecido, n int) []domain.DevedorReincidente
	ReincidenciaPorMes(boletos []domain.BoletoEnriquecido) []domain.ReincidenciaMensal
}

type service struct {
	logger *zap.Logger
}

// NewService cria uma instância do serviço de reincidência.
func NewService(logger *zap.Logger) Service {
	return &service{logger: logger}
}

type agregadoDevedor struct {
	meses    map[string]bool
	soma     float64
	qtd      int
	primeiro domain.BoletoEnriquecido
	status   map[string]int
}

// CalcularReincidencia detalha, por devedor, em quantos meses ele
// apareceu e quanto acumulou em aberto, ordenado pela quantidade de
// boletos em ordem decrescente.
func (s *service) CalcularReincidencia(boletos []domain.BoletoEnriquecido) []domain.ReincidenciaDevedor {
	agregados := make(map[string]*agregadoDevedor)
	for _, b := range boletos {
		if b.StatusCategoria != domain.CategoriaAberta {
			continue
		}
		ag := agregados[b.PersonID]
		if ag == nil {
			ag = &agregadoDevedor{
				meses:    make(map[string]bool),
				status:   make(map[string]int),
				primeiro: b,
			}
			agregados[b.PersonID] = ag
		}
		if b.MesReferencia != "" {
			ag.meses[b.MesReferencia] = true
		}
		ag.soma += b.ValorFloat
		ag.qtd++
		ag.status[b.StatusNorm]++
	}

	resultado := make([]domain.ReincidenciaDevedor, 0, len(agregados))
	for id, ag := range agregados {
		meses := make([]string, 0, len(ag.meses))
		for mes := range ag.meses {
			meses = append(meses, mes)
		}
		sort.Strings(meses)

		r := domain.ReincidenciaDevedor{
			PersonID:        id,
			MesesApareceu:   len(meses),
			MesesLista:      strings.Join(meses, ", "),
			SomaOpen:        ag.soma,
			QtdBoletosOpen:  ag.qtd,
			PenaAgua:        ag.primeiro.PenaAgua,
			Nome:            ag.primeiro.NomePagador,
			StatusMaisComum: statusMaisComum(ag.status),
		}
		if ag.qtd > 0 {
			r.MediaOpen = ag.soma / float64(ag.qtd)
		}
		resultado = append(resultado, r)
	}

	sort.Slice(resultado, func(i, j int) bool {
		if resultado[i].QtdBoletosOpen != resultado[j].QtdBoletosOpen {
			return resultado[i].QtdBoletosOpen > resultado[j].QtdBoletosOpen
		}
		return resultado[i].PersonID < resultado[j].PersonID
	})

	s.logger.Debug("reincidência calculada", zap.Int("devedores", len(resultado)))
	return resultado
}

// TopDevedoresReincidentes devolve o ranking dos n devedores com mais
// boletos em aberto.
func (s *service) TopDevedoresReincidentes(boletos []domain.BoletoEnriquecido, n int) []domain.DevedorReincidente {
	if n <= 0 {
		return nil
	}
	detalhe := s.CalcularReincidencia(boletos)
	if len(detalhe) == 0 {
		return nil
	}
	if n > len(detalhe) {
		n = len(detalhe)
	}

	top := make([]domain.DevedorReincidente, 0, n)
	for i, r := range detalhe[:n] {
		top = append(top, domain.DevedorReincidente{
			Rank:            i + 1,
			PersonID:        r.PersonID,
			PenaAgua:        r.PenaAgua,
			Nome:            r.Nome,
			QtdBoletosOpen:  r.QtdBoletosOpen,
			MesesApareceu:   r.MesesApareceu,
			SomaOpen:        r.SomaOpen,
			MediaOpen:       r.MediaOpen,
			StatusMaisComum: r.StatusMaisComum,
		})
	}
	return top
}

// ReincidenciaPorMes conta, mês a mês, quantos devedores são novos e
// quantos já haviam aparecido em algum mês anterior.
func (s *service) ReincidenciaPorMes(boletos []domain.BoletoEnriquecido) []domain.ReincidenciaMensal {
	porMes := make(map[string]map[string]bool)
	for _, b := range boletos {
		if b.StatusCategoria != domain.CategoriaAberta || b.MesReferencia == "" {
			continue
		}
		if porMes[b.MesReferencia] == nil {
			porMes[b.MesReferencia] = make(map[string]bool)
		}
		porMes[b.MesReferencia][b.PersonID] = true
	}

	meses := make([]string, 0, len(porMes))
	for mes := range porMes {
		meses = append(meses, mes)
	}
	sort.Strings(meses)

	resultado := make([]domain.ReincidenciaMensal, 0, len(meses))
	anteriores := make(map[string]bool)
	for _, mes := range meses {
		atual := porMes[mes]
		var novos, reincidentes int
		for id := range atual {
			if anteriores[id] {
				reincidentes++
			} else {
				novos++
			}
		}

		r := domain.ReincidenciaMensal{
			MesReferencia:            mes,
			QtdDevedoresTotal:        len(atual),
			QtdDevedoresNovos:        novos,
			QtdDevedoresReincidentes: reincidentes,
		}
		if len(atual) > 0 {
			r.PctReincidentes = float64(reincidentes) / float64(len(atual)) * 100
		}
		resultado = append(resultado, r)

		for id := range atual {
			anteriores[id] = true
		}
	}
	return resultado
}

// statusMaisComum devolve o status mais frequente; empates são
// resolvidos pela menor string.
func statusMaisComum(contagens map[string]int) string {
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
