// Package config loads the bot's settings from environment variables,
// applying defaults and validating the result. It covers the Slack
// connection, the state snapshot, the HTTP surface, logging and tracing.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// SlackConfig holds the chat connection settings.
type SlackConfig struct {
	BotToken      string        // SLACK_BOT_TOKEN
	SigningSecret string        // SLACK_SIGNING_SECRET
	APIURL        string        // SLACK_API_URL, empty for the public API
	RPS           float64       // SLACK_RPS, outbound Web API calls per second
	Burst         int           // SLACK_BURST
	QueueSize     int           // EVENT_QUEUE_SIZE
	DedupeTTL     time.Duration // EVENT_DEDUPE_TTL
}

// BotConfig holds the command loop settings.
type BotConfig struct {
	Name              string        // BOT_NAME, display name the bot is registered under
	PollInterval      time.Duration // POLL_INTERVAL
	AckReaction       string        // ACK_REACTION
	EnrichConcurrency int           // ENRICH_CONCURRENCY
	TimeZone          string        // REPORT_TZ, IANA name; empty means local time
}

// StoreConfig selects and locates the state snapshot.
type StoreConfig struct {
	Backend   string // STORE_BACKEND: csv|sqlite
	StatePath string // STATE_PATH, CSV file
	DBPath    string // DB_PATH, SQLite file
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the bot.
type Config struct {
	Slack SlackConfig
	Bot   BotConfig
	Store StoreConfig

	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool
	APIBasePath string

	// Rate limiting of the report API
	RateRPS   float64
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig
	OTEL     OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. Slack credentials are not
// required here; commands that talk to Slack check them with RequireSlack.
func Load() (Config, error) {
	cfg := Config{
		Slack: SlackConfig{
			BotToken:      getenv("SLACK_BOT_TOKEN", ""),
			SigningSecret: getenv("SLACK_SIGNING_SECRET", ""),
			APIURL:        getenv("SLACK_API_URL", ""),
			RPS:           getfloat("SLACK_RPS", 1.0),
			Burst:         getint("SLACK_BURST", 5),
			QueueSize:     getint("EVENT_QUEUE_SIZE", 256),
			DedupeTTL:     getdur("EVENT_DEDUPE_TTL", 10*time.Minute),
		},
		Bot: BotConfig{
			Name:              strings.TrimSpace(getenv("BOT_NAME", "retrobot")),
			PollInterval:      getdur("POLL_INTERVAL", time.Second),
			AckReaction:       strings.Trim(getenv("ACK_REACTION", "white_check_mark"), ": "),
			EnrichConcurrency: getint("ENRICH_CONCURRENCY", 4),
			TimeZone:          getenv("REPORT_TZ", ""),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(strings.TrimSpace(getenv("STORE_BACKEND", BackendCSV))),
			StatePath: getenv("STATE_PATH", ".tmp/bot_state.csv"),
			DBPath:    getenv("DB_PATH", "retrobot.db"),
		},

		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "retrobot"),
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
	if cfg.Bot.Name == "" {
		return cfg, errors.New("BOT_NAME must not be empty")
	}
	if cfg.Bot.PollInterval <= 0 {
		return cfg, errors.New("POLL_INTERVAL must be > 0")
	}
	if cfg.Bot.AckReaction == "" {
		return cfg, errors.New("ACK_REACTION must not be empty")
	}
	if cfg.Bot.EnrichConcurrency < 1 {
		return cfg, errors.New("ENRICH_CONCURRENCY must be >= 1")
	}
	if cfg.Bot.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.Bot.TimeZone); err != nil {
			return cfg, errors.New("REPORT_TZ must be an IANA time zone name")
		}
	}
	if cfg.Slack.RPS <= 0 {
		return cfg, errors.New("SLACK_RPS must be > 0")
	}
	if cfg.Slack.Burst < 1 {
		return cfg, errors.New("SLACK_BURST must be >= 1")
	}
	if cfg.Slack.QueueSize < 1 {
		return cfg, errors.New("EVENT_QUEUE_SIZE must be >= 1")
	}
	if cfg.Slack.DedupeTTL <= 0 {
		return cfg, errors.New("EVENT_DEDUPE_TTL must be > 0")
	}
	switch cfg.Store.Backend {
	case BackendCSV:
		if strings.TrimSpace(cfg.Store.StatePath) == "" {
			return cfg, errors.New("STATE_PATH must not be empty")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	default:
		return cfg, errors.New("STORE_BACKEND must be one of: csv, sqlite")
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
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// RequireSlack reports an error when the credentials needed to run the bot
// against Slack are missing.
func (c Config) RequireSlack() error {
	if strings.TrimSpace(c.Slack.BotToken) == "" {
		return errors.New("SLACK_BOT_TOKEN must be set")
	}
	if strings.TrimSpace(c.Slack.SigningSecret) == "" {
		return errors.New("SLACK_SIGNING_SECRET must be set")
	}
	return nil
}

// Location returns the report time zone.
func (c Config) Location() *time.Location {
	if c.Bot.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Bot.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ---- helpers ----

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
