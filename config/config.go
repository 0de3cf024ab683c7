package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"renovationcost/services"
)

type Config struct {
	Port string

	// Input workbooks
	PriceListPath  string
	PriceListSheet string
	TemplatePath   string

	// Report output
	OutputDir      string
	ReportFileName string

	// Budget
	MaxTotal            float64
	DiagnosticDeduction float64
	ReductionPercent    float64

	// Upload limits
	MaxUploadBytes int64

	// Sessions idle for longer are dropped
	SessionIdleTimeout time.Duration

	LogLevel string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; variables already set
// in the environment win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8501"),

		PriceListPath:  envOr("PRICE_LIST_PATH", "TURBO_ARCHIVO_PARA_TRABAJAR.xlsx"),
		PriceListSheet: envOr("PRICE_LIST_SHEET", services.DefaultPriceListSheet),
		TemplatePath:   envOr("TEMPLATE_PATH", "Plantilla_Turbo_Final.xlsx"),

		OutputDir:      envOr("OUTPUT_DIR", "."),
		ReportFileName: envOr("REPORT_FILE_NAME", services.DefaultReportFileName),

		MaxTotal:            envFloat("MAX_TOTAL", services.DefaultMaxTotal),
		DiagnosticDeduction: envFloat("DIAGNOSTIC_DEDUCTION", services.DefaultDiagnosticDeduction),
		ReductionPercent:    envFloat("REDUCTION_PERCENT", 0),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10<<20), // 10MB

		SessionIdleTimeout: envDuration("SESSION_IDLE_TIMEOUT", defaultSessionIdle),

		LogLevel: strings.ToLower(envOr("LOG_LEVEL", "info")),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = defaultSessionIdle
	}

	return cfg
}

const defaultSessionIdle = 2 * time.Hour

var (
	portPattern     = regexp.MustCompile(`^[0-9]{1,5}$`)
	xlsxNamePattern = regexp.MustCompile(`(?i)^[^/\\]+\.xlsx$`)
)

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Match(portPattern)),
		validation.Field(&c.PriceListPath, validation.Required),
		validation.Field(&c.TemplatePath, validation.Required),
		validation.Field(&c.ReportFileName, validation.Required, validation.Match(xlsxNamePattern)),
		validation.Field(&c.MaxTotal, validation.Min(0.0)),
		validation.Field(&c.DiagnosticDeduction, validation.Min(0.0), validation.Max(c.MaxTotal)),
		validation.Field(&c.ReductionPercent, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.SessionIdleTimeout, validation.Min(time.Minute)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// Budget returns the budget parameters for a new session.
func (c Config) Budget() services.Budget {
	return services.Budget{
		MaxTotal:            c.MaxTotal,
		DiagnosticDeduction: c.DiagnosticDeduction,
		ReductionPercent:    c.ReductionPercent,
	}
}

// ReportPath is where exported reports are written.
func (c Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.ReportFileName)
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := cast.ToInt64E(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
	}
	return fallback
}
