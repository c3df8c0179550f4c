// cmd/inadimplencia/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joaovianaamr/Inadimplencia/internal/app"
	"github.com/joaovianaamr/Inadimplencia/internal/config"
	"github.com/joaovianaamr/Inadimplencia/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", cfg.Input, "arquivo único ou diretório com os arquivos de boletos (csv, xlsx ou xls)")
	output := flag.String("output", cfg.OutputDir, "diretório de saída, criado se não existir")
	format := flag.String("format", strings.Join(cfg.Formats, ","), "formatos de saída separados por vírgula: html,csv,xlsx")
	top := flag.Int("top", cfg.TopN, "número de devedores nos rankings")
	encoding := flag.String("encoding", cfg.Encoding, "encoding dos arquivos CSV de entrada (utf-8-sig, latin-1 ou windows-1252)")
	csvEncoding := flag.String("csv-encoding", cfg.CSVEncoding, "encoding dos CSVs exportados (utf-8-sig ou windows-1252)")
	paidStatus := flag.String("paid-status", strings.Join(cfg.PaidStatus, ","), "status considerados PAGOS, separados por vírgula (ex: \"PAGO NO DIA,PAGO,LIQUIDADO\")")
	openStatus := flag.String("open-status", strings.Join(cfg.OpenStatus, ","), "status considerados EM ABERTO, separados por vírgula (ex: \"VENCIDO,EM ABERTO\")")
	verbose := flag.Bool("verbose", cfg.Verbose, "habilita logs em nível DEBUG")
	flag.Parse()

	cfg.Input = *input
	cfg.OutputDir = *output
	cfg.Formats = config.SplitList(*format)
	cfg.TopN = *top
	cfg.Encoding = *encoding
	cfg.CSVEncoding = *csvEncoding
	cfg.PaidStatus = config.SplitList(*paidStatus)
	cfg.OpenStatus = config.SplitList(*openStatus)
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "configuração inválida:", err)
		flag.Usage()
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro ao criar o logger:", err)
		os.Exit(1)
	}

	if err := app.NewRunner(cfg, logger).Run(); err != nil {
		logger.Error("erro durante o processamento", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
