// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings such as
// server timeouts, logging, the session gate, the AI provider, storage paths,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSecretKey = "your-secret-key-change-this-in-production"
	defaultPassword  = "hatch123"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            time.Duration
	ContentSecurityPolicy string // CONTENT_SECURITY_POLICY, empty disables
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-hatch-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
	Environment string  // copied from APP_ENV / FLASK_ENV
}

// AuthConfig configures the shared-password session gate.
type AuthConfig struct {
	SecretKey    string        // SECRET_KEY, signs session cookies
	Password     string        // WEBSITE_PASSWORD
	SessionTTL   time.Duration // SESSION_TTL
	SecureCookie bool          // COOKIE_SECURE
}

// OpenAIConfig configures the AI provider adapter.
type OpenAIConfig struct {
	APIKey      string        // OPENAI_API_KEY
	BaseURL     string        // OPENAI_BASE_URL
	ImageModel  string        // OPENAI_IMAGE_MODEL
	ChatModel   string        // OPENAI_CHAT_MODEL
	SpeechModel string        // OPENAI_SPEECH_MODEL
	Voice       string        // OPENAI_VOICE
	Timeout     time.Duration // OPENAI_TIMEOUT, per provider HTTP call
}

// StorageConfig selects and locates the record and asset stores.
type StorageConfig struct {
	Backend       string // STORE_BACKEND: json|sqlite
	EggsFile      string // EGGS_FILE
	CreaturesFile string // CREATURES_FILE
	DBPath        string // DB_PATH
	StaticRoot    string // STATIC_ROOT, parent of images/ and audio/
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // generations take minutes
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxUploadBytes    int64         // request body cap
	GinMode           string        // debug|release|test
	Env               string        // FLASK_ENV / APP_ENV

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	Auth    AuthConfig
	OpenAI  OpenAIConfig
	Storage StorageConfig

	// Rate limiting (generation routes)
	RateRPS   float64 // tokens per second; 0 disables the limiter
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// Development reports whether the app runs in development mode.
func (c Config) Development() bool { return c.Env == "development" }

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
	env := strings.ToLower(getenv("APP_ENV", getenv("FLASK_ENV", "production")))
	debug := getbool("FLASK_DEBUG", false)

	ginMode := "release"
	if env == "development" || debug {
		ginMode = "debug"
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "5001"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 5*time.Minute),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxUploadBytes:    int64(getint("MAX_UPLOAD_BYTES", 20<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", ginMode)),
		Env:               env,

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", env == "development"),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		Auth: AuthConfig{
			SecretKey:    getenv("SECRET_KEY", defaultSecretKey),
			Password:     getenv("WEBSITE_PASSWORD", defaultPassword),
			SessionTTL:   getdur("SESSION_TTL", 30*24*time.Hour),
			SecureCookie: getbool("COOKIE_SECURE", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getenv("OPENAI_API_KEY", ""),
			BaseURL:     getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ImageModel:  getenv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			ChatModel:   getenv("OPENAI_CHAT_MODEL", "gpt-4o"),
			SpeechModel: getenv("OPENAI_SPEECH_MODEL", "tts-1"),
			Voice:       getenv("OPENAI_VOICE", "alloy"),
			Timeout:     getdur("OPENAI_TIMEOUT", 2*time.Minute),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getenv("STORE_BACKEND", "json")),
			EggsFile:      getenv("EGGS_FILE", "eggs_data.json"),
			CreaturesFile: getenv("CREATURES_FILE", "creatures_data.json"),
			DBPath:        getenv("DB_PATH", "hatch.db"),
			StaticRoot:    getenv("STATIC_ROOT", "static"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 2.0),
		RateBurst: getint("RATE_BURST", 5),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),

			ContentSecurityPolicy: getenv("CONTENT_SECURITY_POLICY", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-hatch-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			Environment: env,
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

	return cfg, validate(cfg)
}

// validate joins every invalid setting into one error.
func validate(cfg Config) error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(cfg.Port) != "", "PORT must not be empty")
	check(cfg.ReadTimeout > 0 && cfg.ReadHeaderTimeout > 0 && cfg.WriteTimeout > 0 && cfg.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(cfg.MaxUploadBytes > 0, "MAX_UPLOAD_BYTES must be > 0")

	check(strings.TrimSpace(cfg.Auth.SecretKey) != "", "SECRET_KEY must not be empty")
	check(cfg.Auth.Password != "", "WEBSITE_PASSWORD must not be empty")
	check(cfg.Auth.SessionTTL > 0, "SESSION_TTL must be > 0")
	check(cfg.OpenAI.Timeout > 0, "OPENAI_TIMEOUT must be > 0")

	switch cfg.Storage.Backend {
	case "json":
		check(strings.TrimSpace(cfg.Storage.EggsFile) != "" && strings.TrimSpace(cfg.Storage.CreaturesFile) != "",
			"EGGS_FILE and CREATURES_FILE must not be empty")
	case "sqlite":
		check(strings.TrimSpace(cfg.Storage.DBPath) != "", "DB_PATH must not be empty")
	default:
		errs = append(errs, errors.New("STORE_BACKEND must be one of: json, sqlite"))
	}
	check(strings.TrimSpace(cfg.Storage.StaticRoot) != "", "STATIC_ROOT must not be empty")

	check(cfg.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// Warnings lists settings that are valid but unsafe or incomplete for a
// public deployment. main logs them at startup.
func (c Config) Warnings() []string {
	var out []string
	if c.OpenAI.APIKey == "" {
		out = append(out, "OPENAI_API_KEY is not set; generation requests will fail until it is configured")
	}
	if c.Development() {
		return out
	}
	if c.Auth.SecretKey == defaultSecretKey {
		out = append(out, "SECRET_KEY uses the built-in default; sessions can be forged")
	}
	if c.Auth.Password == defaultPassword {
		out = append(out, "WEBSITE_PASSWORD uses the built-in default")
	}
	if !c.Auth.SecureCookie {
		out = append(out, "COOKIE_SECURE is off; the session cookie is sent over plain http")
	}
	return out
}

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

// getdur accepts Go durations ("90s", "2m") and bare integers as seconds.
func getdur(k string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
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

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
