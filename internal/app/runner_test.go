package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joaovianaamr/Inadimplencia/internal/config"

	"go.uber.org/zap"
)

func configTeste(entrada, saida string, formatos ...string) *config.Config {
	return &config.Config{
		Input:       entrada,
		OutputDir:   saida,
		Formats:     formatos,
		TopN:        10,
		Encoding:    "utf-8-sig",
		CSVEncoding: "utf-8-sig",
	}
}

func escreverEntrada(t *testing.T, dir string) {
	t.Helper()
	conteudo := "banco,nome_pagador,status,numero_seu,numero_nosso,data_vencimento,dda,valor\n" +
		"SICREDI,436MELQUESEDEQUE ANTONIO,VENCIDO,111,221,15/01/2025,NAO,\"1.161,41\"\n" +
		"SICREDI,436MELQUESEDEQUE ANTONIO,VENCIDO,112,222,15/02/2025,NAO,\"500,00\"\n" +
		"BANCO DO BRASIL,77JOAO DA SILVA,PAGO,113,223,10/01/2025,SIM,\"100,00\"\n"
	if err := os.WriteFile(filepath.Join(dir, "boletos.csv"), []byte(conteudo), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunPipelineCompleto(t *testing.T) {
	entrada := t.TempDir()
	saida := t.TempDir()
	escreverEntrada(t, entrada)

	runner := NewRunner(configTeste(entrada, saida, "html", "csv", "xlsx"), zap.NewNop())
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	diretorio := filepath.Join(saida, "relatorio_1")
	esperados := []string{
		"relatorio_inadimplencia.html",
		filepath.Join("charts", "time_series_open_debt_total.html"),
		filepath.Join("charts", "bar_top10_debtors_total.html"),
		"open_summary_overall.csv",
		"open_summary_overall.xlsx",
		"open_summary_by_bank.csv",
		"debtors_ranking_by_total_debt.csv",
		"debtors_recurrence_detail.csv",
		"data_quality_report.csv",
	}
	for _, nome := range esperados {
		if _, err := os.Stat(filepath.Join(diretorio, nome)); err != nil {
			t.Errorf("saída esperada %s não foi gravada: %v", nome, err)
		}
	}

	pagina, err := os.ReadFile(filepath.Join(diretorio, "relatorio_inadimplencia.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(pagina), "MELQUESEDEQUE ANTONIO") {
		t.Error("relatório não contém o devedor em aberto")
	}
	if !strings.Contains(string(pagina), "charts/time_series_open_debt_total.html") {
		t.Error("relatório não contém as ligações para os gráficos")
	}
}

func TestRunSomenteCSV(t *testing.T) {
	entrada := t.TempDir()
	saida := t.TempDir()
	escreverEntrada(t, entrada)

	runner := NewRunner(configTeste(entrada, saida, "csv"), zap.NewNop())
	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	diretorio := filepath.Join(saida, "relatorio_1")
	if _, err := os.Stat(filepath.Join(diretorio, "open_summary_overall.csv")); err != nil {
		t.Errorf("csv não foi gravado: %v", err)
	}
	if _, err := os.Stat(filepath.Join(diretorio, "relatorio_inadimplencia.html")); !os.IsNotExist(err) {
		t.Error("relatório HTML não deveria ser gerado sem o formato html")
	}
	if _, err := os.Stat(filepath.Join(diretorio, "charts")); !os.IsNotExist(err) {
		t.Error("gráficos não deveriam ser gerados sem o formato html")
	}
}

func TestRunDiretoriosSequenciais(t *testing.T) {
	entrada := t.TempDir()
	saida := t.TempDir()
	escreverEntrada(t, entrada)

	runner := NewRunner(configTeste(entrada, saida, "csv"), zap.NewNop())
	if err := runner.Run(); err != nil {
		t.Fatalf("primeira execução: %v", err)
	}
	if err := runner.Run(); err != nil {
		t.Fatalf("segunda execução: %v", err)
	}

	for _, nome := range []string{"relatorio_1", "relatorio_2"} {
		if _, err := os.Stat(filepath.Join(saida, nome)); err != nil {
			t.Errorf("diretório %s não existe: %v", nome, err)
		}
	}
}

func TestRunSemArquivos(t *testing.T) {
	runner := NewRunner(configTeste(t.TempDir(), t.TempDir(), "csv"), zap.NewNop())
	if err := runner.Run(); err == nil {
		t.Fatal("esperava erro sem arquivos de entrada")
	}
}

func TestResolverDiretorioSaida(t *testing.T) {
	saida := t.TempDir()
	for _, nome := range []string{"relatorio_2", "relatorio_7", "relatorio_abc", "outros"} {
		if err := os.MkdirAll(filepath.Join(saida, nome), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// arquivo com nome de relatório não conta
	if err := os.WriteFile(filepath.Join(saida, "relatorio_9"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(configTeste(t.TempDir(), saida, "csv"), zap.NewNop())
	diretorio, err := runner.resolverDiretorioSaida()
	if err != nil {
		t.Fatalf("resolverDiretorioSaida: %v", err)
	}
	if filepath.Base(diretorio) != "relatorio_8" {
		t.Errorf("diretório = %s, esperado relatorio_8", filepath.Base(diretorio))
	}
	if _, err := os.Stat(diretorio); err != nil {
		t.Errorf("diretório não foi criado: %v", err)
	}
}
