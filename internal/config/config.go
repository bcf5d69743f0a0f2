/**
 * @description
 * This package handles configuration management for the monzo-mcp service. It
 * uses the Viper library to read settings from environment variables or an
 * optional .env file, applies defaults, and normalises aliases.
 *
 * @dependencies
 * - github.com/spf13/viper: Configuration loading and environment binding.
 */

package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultMonzoAPIBaseURL  = "https://api.monzo.com"
	defaultRateLimitPrefix  = "monzo_mcp:rate_limit"
	defaultAuditExchange    = "monzo_mcp.events"
	defaultProbeSchedule    = "@every 15m"
	defaultHTTPTimeoutSecs  = 30
	defaultToolCallsPerMin  = 60
	defaultCORSAllowedHosts = "https://*,http://*"
)

// Config holds all the configuration variables for the service.
// MonzoAccessToken is a credential and must never be logged.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	MonzoAPIBaseURL         string `mapstructure:"MONZO_API_BASE_URL"`
	MonzoAccessToken        string `mapstructure:"MONZO_ACCESS_TOKEN"`
	MonzoHTTPTimeoutSeconds int    `mapstructure:"MONZO_HTTP_TIMEOUT_SECONDS"`
	InternalAPIKey          string `mapstructure:"INTERNAL_API_KEY"`
	JWTSigningSecret        string `mapstructure:"JWT_SIGNING_SECRET"`
	CORSAllowedOrigins      string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	ToolRateLimitPerMinute  int    `mapstructure:"TOOL_RATE_LIMIT_PER_MINUTE"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	AuditExchange           string `mapstructure:"AUDIT_EXCHANGE"`
	CredentialProbeSchedule string `mapstructure:"CREDENTIAL_PROBE_SCHEDULE"`
}

// MonzoHTTPTimeout returns the per-request timeout for Monzo API calls.
func (c Config) MonzoHTTPTimeout() time.Duration {
	return time.Duration(c.MonzoHTTPTimeoutSeconds) * time.Second
}

// AllowedOrigins splits CORSAllowedOrigins on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoadConfig reads configuration from environment variables and an optional
// .env file in path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MONZO_API_BASE_URL", defaultMonzoAPIBaseURL)
	viper.SetDefault("MONZO_HTTP_TIMEOUT_SECONDS", defaultHTTPTimeoutSecs)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSAllowedHosts)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", defaultRateLimitPrefix)
	viper.SetDefault("TOOL_RATE_LIMIT_PER_MINUTE", defaultToolCallsPerMin)
	viper.SetDefault("AUDIT_EXCHANGE", defaultAuditExchange)
	viper.SetDefault("CREDENTIAL_PROBE_SCHEDULE", defaultProbeSchedule)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("MONZO_API_BASE_URL", "MONZO_API_BASE_URL", "MONZO_API_BASE")
	_ = viper.BindEnv("MONZO_ACCESS_TOKEN")
	_ = viper.BindEnv("MONZO_HTTP_TIMEOUT_SECONDS")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("JWT_SIGNING_SECRET")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("TOOL_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AUDIT_EXCHANGE")
	_ = viper.BindEnv("CREDENTIAL_PROBE_SCHEDULE")

	// The .env file is optional.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.MonzoAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.MonzoAPIBaseURL), "/")
	if config.MonzoAPIBaseURL == "" {
		config.MonzoAPIBaseURL = defaultMonzoAPIBaseURL
	}
	config.MonzoAccessToken = strings.TrimSpace(config.MonzoAccessToken)
	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.CredentialProbeSchedule = strings.TrimSpace(config.CredentialProbeSchedule)

	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = defaultRateLimitPrefix
	}
	if strings.TrimSpace(config.AuditExchange) == "" {
		config.AuditExchange = defaultAuditExchange
	}

	if config.MonzoHTTPTimeoutSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive monzo http timeout; using default\" timeout_seconds=%d", config.MonzoHTTPTimeoutSeconds)
		config.MonzoHTTPTimeoutSeconds = defaultHTTPTimeoutSecs
	}
	if config.ToolRateLimitPerMinute < 0 {
		config.ToolRateLimitPerMinute = 0
	}

	return
}
