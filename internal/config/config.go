// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// FormatosValidos relaciona os formatos de saída aceitos pelos relatórios.
var FormatosValidos = map[string]bool{
	"html": true,
	"csv":  true,
	"xlsx": true,
}

// Config reúne os parâmetros de execução da análise de inadimplência.
type Config struct {
	Input       string
	OutputDir   string
	Formats     []string
	TopN        int
	Encoding    string
	CSVEncoding string
	PaidStatus  []string
	OpenStatus  []string
	Verbose     bool
}

// Load monta a configuração a partir das variáveis de ambiente, com
// suporte a arquivo .env e valores padrão. Flags de linha de comando
// são aplicadas por cima pelo chamador.
func Load() *Config {
	// o arquivo .env é opcional
	_ = godotenv.Load()

	return &Config{
		Input:       getEnv("INADIMPLENCIA_INPUT", "dados"),
		OutputDir:   getEnv("INADIMPLENCIA_OUTPUT", "resultados"),
		Formats:     SplitList(getEnv("INADIMPLENCIA_FORMATS", "html,csv")),
		TopN:        getEnvAsInt("INADIMPLENCIA_TOP", 10),
		Encoding:    getEnv("INADIMPLENCIA_ENCODING", "utf-8-sig"),
		CSVEncoding: getEnv("INADIMPLENCIA_CSV_ENCODING", "utf-8-sig"),
		PaidStatus:  SplitList(getEnv("INADIMPLENCIA_PAID_STATUS", "")),
		OpenStatus:  SplitList(getEnv("INADIMPLENCIA_OPEN_STATUS", "")),
		Verbose:     getEnvAsBool("INADIMPLENCIA_VERBOSE", false),
	}
}

// NormalizeFormats remove duplicatas e formatos não suportados da lista
// solicitada, devolvendo os descartados para aviso ao usuário. Se nada
// sobrar, recua para o padrão html,csv.
func (c *Config) NormalizeFormats() []string {
	vistos := make(map[string]bool)
	var validos, descartados []string
	for _, f := range c.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || vistos[f] {
			continue
		}
		vistos[f] = true
		if FormatosValidos[f] {
			validos = append(validos, f)
		} else {
			descartados = append(descartados, f)
		}
	}
	if len(validos) == 0 {
		validos = []string{"html", "csv"}
	}
	c.Formats = validos
	return descartados
}

// HasFormat informa se um formato de saída foi solicitado.
func (c *Config) HasFormat(formato string) bool {
	for _, f := range c.Formats {
		if f == formato {
			return true
		}
	}
	return false
}

// Validate garante que a configuração mínima está presente.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("diretório de entrada não informado")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("diretório de saída não informado")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top deve ser positivo, recebido %d", c.TopN)
	}
	switch c.CSVEncoding {
	case "utf-8-sig", "windows-1252":
	default:
		return fmt.Errorf("encoding de saída não suportado: %s", c.CSVEncoding)
	}
	return nil
}

// SplitList divide uma lista separada por vírgulas, descartando
// entradas vazias.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var itens []string
	for _, parte := range strings.Split(raw, ",") {
		parte = strings.TrimSpace(parte)
		if parte != "" {
			itens = append(itens, parte)
		}
	}
	return itens
}

// ---------------------- utilitários de ambiente ----------------------

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
