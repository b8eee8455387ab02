package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	AppName string `mapstructure:"APP_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Sin DB_DSN el servicio corre con el store in-memory.
	DatabaseDSN string `mapstructure:"DB_DSN"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// dev | jwt | remote
	AuthMode          string        `mapstructure:"AUTH_MODE"`
	AuthJWTSecret     string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthJWTIssuer     string        `mapstructure:"AUTH_JWT_ISSUER"`
	AuthRemoteURL     string        `mapstructure:"AUTH_REMOTE_URL"`
	AuthRemoteAPIKey  string        `mapstructure:"AUTH_REMOTE_API_KEY"`
	AuthRemoteTimeout time.Duration `mapstructure:"AUTH_REMOTE_TIMEOUT"`

	RedisURL string `mapstructure:"REDIS_URL"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TraceSampleRate float64 `mapstructure:"TRACE_SAMPLE_RATE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Políticas del motor de historial.
	SkipTodayOnly     bool `mapstructure:"SKIP_TODAY_ONLY"`
	MissedSweepOnRead bool `mapstructure:"MISSED_SWEEP_ON_READ"`
	SweepLookbackDays int  `mapstructure:"SWEEP_LOOKBACK_DAYS"`
}

var keys = []string{
	"PORT", "ENV", "APP_NAME",
	"LOG_LEVEL", "LOG_FORMAT",
	"DB_DSN", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_MODE", "AUTH_JWT_SECRET", "AUTH_JWT_ISSUER",
	"AUTH_REMOTE_URL", "AUTH_REMOTE_API_KEY", "AUTH_REMOTE_TIMEOUT",
	"REDIS_URL",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"OTLP_ENDPOINT", "TRACE_SAMPLE_RATE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"SKIP_TODAY_ONLY", "MISSED_SWEEP_ON_READ", "SWEEP_LOOKBACK_DAYS",
}

// Load lee env vars (y .env si existe) sobre los defaults.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "medcare")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("AUTH_MODE", "dev")
	v.SetDefault("AUTH_JWT_ISSUER", "medcare")
	v.SetDefault("AUTH_REMOTE_TIMEOUT", "5s")
	v.SetDefault("KAFKA_TOPIC", "occurrence-events")
	v.SetDefault("TRACE_SAMPLE_RATE", 1.0)
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("SKIP_TODAY_ONLY", true)
	v.SetDefault("MISSED_SWEEP_ON_READ", false)
	v.SetDefault("SWEEP_LOOKBACK_DAYS", 7)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env es opcional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// KAFKA_BROKERS llega como "a:9092,b:9092" desde env.
	cfg.KafkaBrokers = splitList(strings.Join(cfg.KafkaBrokers, ","))

	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.AuthMode {
	case "dev":
	case "jwt":
		if strings.TrimSpace(c.AuthJWTSecret) == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "remote":
		if strings.TrimSpace(c.AuthRemoteURL) == "" {
			return fmt.Errorf("AUTH_REMOTE_URL is required when AUTH_MODE=remote")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.SweepLookbackDays < 0 {
		return fmt.Errorf("SWEEP_LOOKBACK_DAYS must be >= 0")
	}
	return nil
}

func (c *Config) Addr() string { return ":" + strings.TrimPrefix(c.Port, ":") }

func splitList(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
