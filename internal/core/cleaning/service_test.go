package cleaning

import (
	"math"
	"testing"
	"time"

	"github.com/joaovianaamr/Inadimplencia/internal/domain"

	"go.uber.org/zap"
)

func TestParseValor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"brasileiro com milhar", "1.161,41", 1161.41, true},
		{"brasileiro sem milhar", "1161,41", 1161.41, true},
		{"anglo decimal", "1161.41", 1161.41, true},
		{"inteiro", "1000", 1000.0, true},
		{"decimal curto", "12,5", 12.5, true},
		{"milhares sem decimal", "1.234.567", 1234567.0, true},
		{"com espacos", "  1161,41  ", 1161.41, true},
		{"vazio", "", 0.0, false},
		{"so espacos", "   ", 0.0, false},
		{"nao numerico", "abc", 0.0, false},
		{"moeda com prefixo", "R$ 100", 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseValor(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseValor(%q): ok = %v, esperado %v", tt.input, ok, tt.ok)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ParseValor(%q) = %v, esperado %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseData(t *testing.T) {
	esperada := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"iso", "2025-10-15", esperada, true},
		{"brasileiro barra", "15/10/2025", esperada, true},
		{"brasileiro hifen", "15-10-2025", esperada, true},
		{"vazio", "", time.Time{}, false},
		{"mes invalido", "15/13/2025", time.Time{}, false},
		{"formato desconhecido", "2025/10/15", time.Time{}, false},
		{"texto", "amanha", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseData(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseData(%q): ok = %v, esperado %v", tt.input, ok, tt.ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Errorf("ParseData(%q) = %v, esperado %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtrairPenaAgua(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantPena     string
		wantRestante string
	}{
		{"colado ao nome", "436MELQUESEDEQUE ANTONIO CAXEADO", "436", "MELQUESEDEQUE ANTONIO CAXEADO"},
		{"com espacos", "  123  NOME COMPLETO", "123", "NOME COMPLETO"},
		{"sem digitos", "NOME SEM CODIGO", "", "NOME SEM CODIGO"},
		{"apenas aparado", "  JOSE  ", "", "JOSE"},
		{"apenas digitos", "999", "999", ""},
		{"vazio", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pena, restante := ExtrairPenaAgua(tt.input)
			if pena != tt.wantPena || restante != tt.wantRestante {
				t.Errorf("ExtrairPenaAgua(%q) = (%q, %q), esperado (%q, %q)",
					tt.input, pena, restante, tt.wantPena, tt.wantRestante)
			}
		})
	}
}

func TestNormalizarNome(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"João da Silva", "JOAO DA SILVA"},
		{"  MÁRIO   CÉSAR ", "MARIO CESAR"},
		{"andré luís", "ANDRE LUIS"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizarNome(tt.input); got != tt.expected {
				t.Errorf("NormalizarNome(%q) = %q, esperado %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCriarPersonID(t *testing.T) {
	tests := []struct {
		name     string
		pena     string
		nome     string
		expected string
	}{
		{"completo", "436", "José Silva", "436|JOSE SILVA"},
		{"pena com espacos", " 77 ", "Maria", "77|MARIA"},
		{"sem pena", "", "Maria", "|MARIA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CriarPersonID(tt.pena, tt.nome); got != tt.expected {
				t.Errorf("CriarPersonID(%q, %q) = %q, esperado %q", tt.pena, tt.nome, got, tt.expected)
			}
		})
	}
}

func newTestService() Service {
	logger := zap.NewNop()
	return NewService(NewStatusClassifier(nil, nil, logger), logger)
}

func TestCleanBoletosEnriquecimento(t *testing.T) {
	svc := newTestService()

	boletos := []domain.Boleto{
		{
			Banco:          " sicredi ",
			NomePagador:    "436MELQUESEDEQUE ANTONIO CAXEADO",
			Status:         "vencido",
			DataVencimento: "15/10/2025",
			Valor:          "1.161,41",
		},
		{
			Banco:          "BB",
			NomePagador:    "MARIA LUÍSA",
			PenaAgua:       "88",
			Status:         "PAGO",
			DataVencimento: "2025-09-01",
			Valor:          "50,00",
		},
	}

	limpos := svc.CleanBoletos(boletos)
	if len(limpos) != 2 {
		t.Fatalf("esperava 2 boletos, obteve %d", len(limpos))
	}

	b := limpos[0]
	if b.PenaAgua != "436" {
		t.Errorf("pena d'água extraída = %q, esperado 436", b.PenaAgua)
	}
	if b.NomePagador != "MELQUESEDEQUE ANTONIO CAXEADO" {
		t.Errorf("nome reescrito = %q", b.NomePagador)
	}
	if !b.ValorValido || math.Abs(b.ValorFloat-1161.41) > 1e-9 {
		t.Errorf("valor = (%v, %v), esperado (1161.41, true)", b.ValorFloat, b.ValorValido)
	}
	if !b.DataValida || b.MesReferencia != "2025-10" {
		t.Errorf("mês de referência = %q (data válida %v), esperado 2025-10", b.MesReferencia, b.DataValida)
	}
	if b.StatusCategoria != domain.CategoriaAberta || b.StatusNorm != "VENCIDO" {
		t.Errorf("status = (%q, %q), esperado (VENCIDO, OPEN)", b.StatusNorm, b.StatusCategoria)
	}
	if b.BancoNorm != "SICREDI" {
		t.Errorf("banco normalizado = %q, esperado SICREDI", b.BancoNorm)
	}
	if b.PersonID != "436|MELQUESEDEQUE ANTONIO CAXEADO" {
		t.Errorf("person_id = %q", b.PersonID)
	}

	m := limpos[1]
	if m.PenaAgua != "88" || m.NomePagador != "MARIA LUÍSA" {
		t.Errorf("pena d'água fornecida não pode ser sobrescrita: (%q, %q)", m.PenaAgua, m.NomePagador)
	}
	if m.StatusCategoria != domain.CategoriaPaga {
		t.Errorf("categoria = %q, esperado PAID", m.StatusCategoria)
	}
	if m.MesReferencia != "2025-09" {
		t.Errorf("mês de referência = %q, esperado 2025-09", m.MesReferencia)
	}
	if m.PersonID != "88|MARIA LUISA" {
		t.Errorf("person_id = %q, esperado 88|MARIA LUISA", m.PersonID)
	}
}

func TestCleanBoletosCamposInvalidos(t *testing.T) {
	svc := newTestService()

	limpos := svc.CleanBoletos([]domain.Boleto{
		{NomePagador: "SEM NADA", Valor: "abc", DataVencimento: "ontem"},
	})

	if len(limpos) != 1 {
		t.Fatalf("linha malformada não pode ser descartada")
	}
	b := limpos[0]
	if b.ValorValido || b.DataValida {
		t.Errorf("flags de validade = (%v, %v), esperado (false, false)", b.ValorValido, b.DataValida)
	}
	if b.MesReferencia != "" {
		t.Errorf("mês de referência = %q, esperado vazio", b.MesReferencia)
	}
	if b.StatusCategoria != domain.CategoriaDesconhecida {
		t.Errorf("categoria = %q, esperado UNKNOWN", b.StatusCategoria)
	}
}

func enriquecido(pena, mes string, categoria domain.CategoriaStatus, valor float64) domain.BoletoEnriquecido {
	return domain.BoletoEnriquecido{
		Boleto:          domain.Boleto{PenaAgua: pena, MesReferencia: mes},
		ValorFloat:      valor,
		ValorValido:     true,
		StatusCategoria: categoria,
	}
}

func TestDeduplicatePrioridade(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name    string
		entrada []domain.BoletoEnriquecido
		valor   float64
	}{
		{
			name: "open vence paid independente da ordem",
			entrada: []domain.BoletoEnriquecido{
				enriquecido("436", "2025-01", domain.CategoriaPaga, 100),
				enriquecido("436", "2025-01", domain.CategoriaAberta, 50),
			},
			valor: 50,
		},
		{
			name: "open vence paid em ordem inversa",
			entrada: []domain.BoletoEnriquecido{
				enriquecido("436", "2025-01", domain.CategoriaAberta, 50),
				enriquecido("436", "2025-01", domain.CategoriaPaga, 100),
			},
			valor: 50,
		},
		{
			name: "mesma categoria vence o maior valor",
			entrada: []domain.BoletoEnriquecido{
				enriquecido("436", "2025-01", domain.CategoriaAberta, 50),
				enriquecido("436", "2025-01", domain.CategoriaAberta, 80),
			},
			valor: 80,
		},
		{
			name: "paid vence unknown",
			entrada: []domain.BoletoEnriquecido{
				enriquecido("436", "2025-01", domain.CategoriaDesconhecida, 900),
				enriquecido("436", "2025-01", domain.CategoriaPaga, 10),
			},
			valor: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saida := svc.Deduplicate(tt.entrada)
			if len(saida) != 1 {
				t.Fatalf("esperava 1 sobrevivente, obteve %d", len(saida))
			}
			if saida[0].ValorFloat != tt.valor {
				t.Errorf("sobrevivente com valor %v, esperado %v", saida[0].ValorFloat, tt.valor)
			}
		})
	}
}

func TestDeduplicateMesesDistintos(t *testing.T) {
	svc := newTestService()

	entrada := []domain.BoletoEnriquecido{
		enriquecido("436", "2025-01", domain.CategoriaAberta, 10),
		enriquecido("436", "2025-02", domain.CategoriaAberta, 20),
		enriquecido("436", "2025-03", domain.CategoriaAberta, 30),
	}

	saida := svc.Deduplicate(entrada)
	if len(saida) != 3 {
		t.Fatalf("meses distintos do mesmo código devem sobreviver: %d de 3", len(saida))
	}
}

func TestDeduplicateChavesInvalidas(t *testing.T) {
	svc := newTestService()

	entrada := []domain.BoletoEnriquecido{
		enriquecido("", "2025-01", domain.CategoriaAberta, 10),
		enriquecido("", "2025-01", domain.CategoriaAberta, 20),
		enriquecido("nan", "2025-01", domain.CategoriaAberta, 30),
		enriquecido("None", "2025-01", domain.CategoriaAberta, 40),
		enriquecido("436", "NaN", domain.CategoriaAberta, 50),
	}

	saida := svc.Deduplicate(entrada)
	if len(saida) != len(entrada) {
		t.Errorf("chaves inválidas não podem ser deduplicadas: %d de %d", len(saida), len(entrada))
	}
}

func TestDeduplicateIdempotente(t *testing.T) {
	svc := newTestService()

	entrada := []domain.BoletoEnriquecido{
		enriquecido("436", "2025-01", domain.CategoriaPaga, 100),
		enriquecido("436", "2025-01", domain.CategoriaAberta, 50),
		enriquecido("77", "2025-02", domain.CategoriaAberta, 10),
		enriquecido("", "", domain.CategoriaAberta, 5),
	}

	primeira := svc.Deduplicate(entrada)
	segunda := svc.Deduplicate(primeira)

	if len(primeira) != len(segunda) {
		t.Fatalf("segunda passada removeu linhas: %d vs %d", len(primeira), len(segunda))
	}
	for i := range primeira {
		if primeira[i] != segunda[i] {
			t.Errorf("linha %d mudou entre passadas", i)
		}
	}
}
