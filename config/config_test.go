package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "PRICE_LIST_PATH", "PRICE_LIST_SHEET", "TEMPLATE_PATH", "OUTPUT_DIR",
	"REPORT_FILE_NAME", "MAX_TOTAL", "DIAGNOSTIC_DEDUCTION", "REDUCTION_PERCENT",
	"MAX_UPLOAD_BYTES", "SESSION_IDLE_TIMEOUT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8501", cfg.Port)
	assert.Equal(t, "TURBO_ARCHIVO_PARA_TRABAJAR.xlsx", cfg.PriceListPath)
	assert.Equal(t, "FORMATO DE OFERTA ECONÓMICA", cfg.PriceListSheet)
	assert.Equal(t, "Plantilla_Turbo_Final.xlsx", cfg.TemplatePath)
	assert.Equal(t, "Reporte_Resultado.xlsx", cfg.ReportPath())
	assert.Equal(t, 15_600_000.0, cfg.MaxTotal)
	assert.Equal(t, 1_300_000.0, cfg.DiagnosticDeduction)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 14_300_000.0, cfg.Budget().Ceiling())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("OUTPUT_DIR", "/tmp/reportes")
	t.Setenv("MAX_TOTAL", "20000000")
	t.Setenv("REDUCTION_PERCENT", "12.5")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, filepath.Join("/tmp/reportes", "Reporte_Resultado.xlsx"), cfg.ReportPath())
	assert.Equal(t, 20_000_000.0, cfg.MaxTotal)
	assert.Equal(t, 12.5, cfg.ReductionPercent)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	require.NoError(t, cfg.Validate())
}

func TestLoad_IgnoresUnparsableNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_TOTAL", "mucho")
	t.Setenv("MAX_UPLOAD_BYTES", "-5")
	t.Setenv("SESSION_IDLE_TIMEOUT", "pronto")

	cfg := Load()
	assert.Equal(t, 15_600_000.0, cfg.MaxTotal)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"missing template", func(c *Config) { c.TemplatePath = "" }},
		{"report is not xlsx", func(c *Config) { c.ReportFileName = "reporte.csv" }},
		{"report name with directory", func(c *Config) { c.ReportFileName = "out/reporte.xlsx" }},
		{"reduction above 100", func(c *Config) { c.ReductionPercent = 150 }},
		{"deduction above max", func(c *Config) { c.DiagnosticDeduction = c.MaxTotal + 1 }},
		{"idle timeout under a minute", func(c *Config) { c.SessionIdleTimeout = time.Second }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
