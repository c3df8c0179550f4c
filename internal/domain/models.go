// package domain/models.go
package domain

import "time"

// CategoriaStatus define a categoria normalizada de um status de boleto.
type CategoriaStatus string

// Constantes das categorias possíveis de status.
const (
	CategoriaPaga         CategoriaStatus = "PAID"
	CategoriaAberta       CategoriaStatus = "OPEN"
	CategoriaDesconhecida CategoriaStatus = "UNKNOWN"
)

// Boleto representa uma linha bruta de um arquivo de boletos.
// Todos os campos chegam como string e nenhum é confiável antes da limpeza.
type Boleto struct {
	Banco          string
	NomePagador    string
	Status         string
	NumeroSeu      string
	NumeroNosso    string
	DataVencimento string
	DDA            string
	Valor          string
	ArquivoOrigem  string
	PenaAgua       string
	MesReferencia  string
}

// BoletoEnriquecido é um Boleto acrescido dos campos derivados pela limpeza.
// PenaAgua, MesReferencia e NomePagador do Boleto embutido podem ter sido
// reescritos durante a limpeza.
type BoletoEnriquecido struct {
	Boleto
	ValorFloat       float64
	ValorValido      bool
	DataVencimentoDt time.Time
	DataValida       bool
	StatusNorm       string
	StatusCategoria  CategoriaStatus
	PersonID         string
	BancoNorm        string
}

// --- Modelos de métricas de inadimplência ---

// DevedorExtremo identifica o devedor com maior ou menor dívida total.
type DevedorExtremo struct {
	PersonID string
	Nome     string
	PenaAgua string
	Divida   float64
}

// MetricasGerais agrega os KPIs calculados sobre os boletos em aberto.
type MetricasGerais struct {
	TotalDevedoresUnicos int
	TotalBoletosEmAberto int
	SomaDividaEmAberto   float64
	TicketMedioEmAberto  float64
	ValorMedio           float64
	ValorMediana         float64
	ValorModa            float64
	ValorDesvioPadrao    float64
	ValorP90             float64
	ValorP95             float64
	MaiorDivida          DevedorExtremo
	MenorDivida          DevedorExtremo
}

// MetricasBanco agrega os KPIs de inadimplência de um banco.
type MetricasBanco struct {
	Banco              string
	SomaDivida         float64
	ValorMedio         float64
	ValorMediana       float64
	ValorDesvioPadrao  float64
	QtdBoletos         int
	QtdDevedoresUnicos int
	TicketMedio        float64
	ValorP90           float64
	ValorP95           float64
}

// BoletoExtremo descreve um boleto em aberto de valor extremo.
type BoletoExtremo struct {
	Valor       float64
	Nome        string
	PenaAgua    string
	Vencimento  time.Time
	Banco       string
	NumeroNosso string
}

// ExtremosBoleto reúne o boleto em aberto de maior e de menor valor.
// Os ponteiros são nil quando não há boleto em aberto com valor válido.
type ExtremosBoleto struct {
	Maior *BoletoExtremo
	Menor *BoletoExtremo
}

// EvolucaoMensal resume a inadimplência de um mês de referência.
type EvolucaoMensal struct {
	MesReferencia          string
	SomaDividaOpen         float64
	ValorMedioOpen         float64
	QtdBoletosOpen         int
	QtdDevedoresOpenUnicos int
}

// MudancaDivida registra a variação de dívida de um devedor entre dois
// meses consecutivos em que ele apareceu.
type MudancaDivida struct {
	PersonID          string
	PenaAgua          string
	Nome              string
	MesAnterior       string
	MesAtual          string
	DividaMesAnterior float64
	DividaMesAtual    float64
	Delta             float64
	PctDelta          float64
}

// DevedorRanking é uma posição do ranking de devedores por dívida total.
type DevedorRanking struct {
	Rank            int
	PersonID        string
	PenaAgua        string
	Nome            string
	DividaTotal     float64
	StatusMaisComum string
}

// ExemploDuplicidade é uma linha de exemplo de duplicidade suspeita.
type ExemploDuplicidade struct {
	Banco       string
	Numero      string
	NomePagador string
	ValorFloat  float64
	Vencimento  time.Time
}

// QualidadeDados resume a qualidade do conjunto de dados processado.
type QualidadeDados struct {
	TotalLinhas                  int
	QtdLinhasInvalidasValor      int
	QtdLinhasInvalidasData       int
	PctLinhasInvalidasValor      float64
	PctLinhasInvalidasData       float64
	DuplicidadesBancoNumeroNosso int
	DuplicidadesBancoNumeroSeu   int
	ExemplosDupNosso             []ExemploDuplicidade
	ExemplosDupSeu               []ExemploDuplicidade
}

// --- Modelos de reincidência ---

// ReincidenciaDevedor detalha a reincidência de um devedor ao longo dos meses.
type ReincidenciaDevedor struct {
	PersonID        string
	MesesApareceu   int
	MesesLista      string
	SomaOpen        float64
	MediaOpen       float64
	QtdBoletosOpen  int
	PenaAgua        string
	Nome            string
	StatusMaisComum string
}

// DevedorReincidente é uma posição do ranking de devedores por reincidência.
type DevedorReincidente struct {
	Rank            int
	PersonID        string
	PenaAgua        string
	Nome            string
	QtdBoletosOpen  int
	MesesApareceu   int
	SomaOpen        float64
	MediaOpen       float64
	StatusMaisComum string
}

// ReincidenciaMensal conta devedores novos e reincidentes de um mês.
type ReincidenciaMensal struct {
	MesReferencia            string
	QtdDevedoresTotal        int
	QtdDevedoresNovos        int
	QtdDevedoresReincidentes int
	PctReincidentes          float64
}
