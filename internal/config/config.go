// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage credentials, SMTP, rate limiting,
// and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "ai-theoretical-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// S3Config defines the S3-compatible bucket holding uploaded files.
// Endpoint is optional; when set (e.g. a MinIO or R2 endpoint) it
// overrides the SDK's default resolution.
type S3Config struct {
	Endpoint  string // S3_ENDPOINT
	Region    string // S3_REGION
	Bucket    string // S3_BUCKET
	AccessKey string // S3_ACCESS_KEY
	SecretKey string // S3_SECRET_KEY
}

// SMTPConfig defines the outbound mail relay.
type SMTPConfig struct {
	Host          string // SMTP_HOST (empty disables email)
	Port          int    // SMTP_PORT
	Username      string // SMTP_USERNAME
	Password      string // SMTP_PASSWORD
	From          string // SMTP_FROM
	SkipTLSVerify bool   // SMTP_SKIP_TLS_VERIFY (dev relays only)
}

// LimitsConfig defines the default daily rate limits; both limiters can
// be reconfigured at runtime through the admin API.
type LimitsConfig struct {
	SubmissionDaily int    // SUBMISSION_DAILY_LIMIT
	SubmissionPerIP int    // SUBMISSION_PER_IP_LIMIT
	AccessDaily     int    // ACCESS_DAILY_LIMIT
	AccessPerEmail  int    // ACCESS_PER_EMAIL_LIMIT
	AlertEmail      string // RATE_LIMIT_ALERT_EMAIL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 120s (covers large uploads)
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// App
	DBPath        string // SQLite path for the metadata store
	AdminToken    string // bearer token protecting moderation endpoints
	PublicBaseURL string // origin used in emailed links
	ConsoleURL    string // site console webhook base (empty disables)

	// Upload caps and token lifetimes
	MaxPDFBytes int64         // MAX_PDF_BYTES
	MaxZipBytes int64         // MAX_ZIP_BYTES
	ConfirmTTL  time.Duration // confirmation link lifetime
	AccessTTL   time.Duration // author access grant lifetime

	// Daily application limits
	Limits LimitsConfig

	// Edge rate limiting (token bucket, per IP)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Integrations
	S3   S3Config
	SMTP SMTPConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		// Uploads up to 50 MiB must fit in a write cycle.
		WriteTimeout:   getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:    getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:        strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		// App
		DBPath:        getenv("DB_PATH", "app.db"),
		AdminToken:    getenv("ADMIN_TOKEN", ""),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		ConsoleURL:    strings.TrimRight(getenv("CONSOLE_URL", ""), "/"),

		// Uploads and token lifetimes
		MaxPDFBytes: getint64("MAX_PDF_BYTES", 50<<20),
		MaxZipBytes: getint64("MAX_ZIP_BYTES", 20<<20),
		ConfirmTTL:  getdur("CONFIRM_TTL", 24*time.Hour),
		AccessTTL:   getdur("ACCESS_TTL", 24*time.Hour),

		// Daily application limits
		Limits: LimitsConfig{
			SubmissionDaily: getint("SUBMISSION_DAILY_LIMIT", 50),
			SubmissionPerIP: getint("SUBMISSION_PER_IP_LIMIT", 5),
			AccessDaily:     getint("ACCESS_DAILY_LIMIT", 10),
			AccessPerEmail:  getint("ACCESS_PER_EMAIL_LIMIT", 3),
			AlertEmail:      getenv("RATE_LIMIT_ALERT_EMAIL", ""),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Integrations
		S3: S3Config{
			Endpoint:  getenv("S3_ENDPOINT", ""),
			Region:    getenv("S3_REGION", "auto"),
			Bucket:    getenv("S3_BUCKET", ""),
			AccessKey: getenv("S3_ACCESS_KEY", ""),
			SecretKey: getenv("S3_SECRET_KEY", ""),
		},
		SMTP: SMTPConfig{
			Host:          getenv("SMTP_HOST", ""),
			Port:          getint("SMTP_PORT", 587),
			Username:      getenv("SMTP_USERNAME", ""),
			Password:      getenv("SMTP_PASSWORD", ""),
			From:          getenv("SMTP_FROM", "AI-Theoretical <noreply@ai-theoretical.org>"),
			SkipTLSVerify: getbool("SMTP_SKIP_TLS_VERIFY", false),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "ai-theoretical-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxPDFBytes <= 0 || cfg.MaxZipBytes <= 0 {
		return cfg, errors.New("upload size caps must be > 0")
	}
	if cfg.ConfirmTTL <= 0 || cfg.AccessTTL <= 0 {
		return cfg, errors.New("token lifetimes must be > 0")
	}
	if cfg.Limits.SubmissionDaily < 1 || cfg.Limits.SubmissionPerIP < 1 ||
		cfg.Limits.AccessDaily < 1 || cfg.Limits.AccessPerEmail < 1 {
		return cfg, errors.New("daily limits must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.SMTP.Port < 1 || cfg.SMTP.Port > 65535 {
		return cfg, errors.New("SMTP_PORT must be a valid port")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
