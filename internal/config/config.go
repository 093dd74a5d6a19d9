package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	DatabaseURL           string
	RedisURL              string
	NATSURL               string
	JWTSecret             string
	BlocklistPath         string
	SafetyReviewThreshold float64
	ReviewTimeEstimate    time.Duration
	QueueSummaryCacheTTL  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WONDERNEST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "WonderNest Content API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("moderation.safety_threshold", 70.0)
	v.SetDefault("moderation.review_estimate", "2h")
	v.SetDefault("moderation.summary_cache_ttl", "1m")

	estimate, err := time.ParseDuration(v.GetString("moderation.review_estimate"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid review time estimate: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("moderation.summary_cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid queue summary cache ttl: %w", err)
	}

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		DatabaseURL:           v.GetString("database.url"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		JWTSecret:             v.GetString("jwt.secret"),
		BlocklistPath:         v.GetString("moderation.blocklist_path"),
		SafetyReviewThreshold: v.GetFloat64("moderation.safety_threshold"),
		ReviewTimeEstimate:    estimate,
		QueueSummaryCacheTTL:  cacheTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SafetyReviewThreshold <= 0 || cfg.SafetyReviewThreshold > 100 {
		cfg.SafetyReviewThreshold = 70
	}

	return cfg, nil
}

// LoadBlocklistWords reads additional blocklist entries from the configured
// file, one word per line. Blank lines and lines starting with '#' are skipped.
func (c Config) LoadBlocklistWords() ([]string, error) {
	if c.BlocklistPath == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(c.BlocklistPath)
	if err != nil {
		return nil, fmt.Errorf("read blocklist file: %w", err)
	}

	var words []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}

	return words, nil
}
