package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultWebhookPath     = "/api/composio/webhook"
	DefaultSearchBaseURL   = "https://api.tavily.com"
	DefaultLLMBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLLMModel        = "gemini-2.0-flash"
	DefaultComposioBaseURL = "https://backend.composio.dev"
	DefaultAnalyticsURL    = "https://data.similarweb.com/api/v1/data"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment", EnvironmentProduction)

	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout_seconds", 30*time.Second)
	viper.SetDefault("server.write_timeout_seconds", 10*time.Minute)
	viper.SetDefault("server.webhook_path", DefaultWebhookPath)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("redis.port", 6379)

	viper.SetDefault("ingress.on_rule_error", "allow")

	viper.SetDefault("dedup.ttl_seconds", 86400)

	viper.SetDefault("search.base_url", DefaultSearchBaseURL)
	viper.SetDefault("search.topic", "news")
	viper.SetDefault("search.depth", "basic")
	viper.SetDefault("search.country", "united kingdom")
	viper.SetDefault("search.chunks_per_source", 3)
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.readability.min_chars", 200)
	viper.SetDefault("search.readability.max_chars", 2000)
	viper.SetDefault("search.readability.fetch_timeout", 15*time.Second)
	viper.SetDefault("search.retry.max_attempts", 2)
	viper.SetDefault("search.retry.initial_interval", 500*time.Millisecond)
	viper.SetDefault("search.retry.max_interval", 5*time.Second)
	viper.SetDefault("search.retry.multiplier", 2.0)

	viper.SetDefault("llm.base_url", DefaultLLMBaseURL)
	viper.SetDefault("llm.model", DefaultLLMModel)
	viper.SetDefault("llm.temperature", 0.9)
	viper.SetDefault("llm.max_tokens", 800)
	viper.SetDefault("llm.rpm", 30)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("llm.max_retries", 2)

	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.viewport_width", 1440)
	viper.SetDefault("browser.viewport_height", 1000)
	viper.SetDefault("browser.navigation_timeout", 60*time.Second)
	viper.SetDefault("browser.render_timeout", 60*time.Second)

	viper.SetDefault("composio.base_url", DefaultComposioBaseURL)
	viper.SetDefault("composio.user_id", "default")
	viper.SetDefault("composio.timeout", 30*time.Second)

	viper.SetDefault("mail.provider", "composio")
	viper.SetDefault("mail.sendgrid.host", "https://api.sendgrid.com")
	viper.SetDefault("mail.sendgrid.from_name", "Media Coverage Reports")

	viper.SetDefault("analytics.enabled", true)
	viper.SetDefault("analytics.endpoint", DefaultAnalyticsURL)
	viper.SetDefault("analytics.timeout", 10*time.Second)
	viper.SetDefault("analytics.cache_ttl_seconds", 86400)
	viper.SetDefault("analytics.retry.max_attempts", 2)
	viper.SetDefault("analytics.retry.initial_interval", 500*time.Millisecond)
	viper.SetDefault("analytics.retry.max_interval", 2*time.Second)
	viper.SetDefault("analytics.retry.multiplier", 2.0)

	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60*time.Second)
	viper.SetDefault("circuit_breaker.timeout", 60*time.Second)
	viper.SetDefault("circuit_breaker.failure_ratio", 0.5)
	viper.SetDefault("circuit_breaker.min_requests", 3)

	viper.SetDefault("rate_limit.rps", 5.0)
	viper.SetDefault("rate_limit.burst", 10)
	viper.SetDefault("rate_limit.cleanup_interval", 300)
	viper.SetDefault("rate_limit.max_age", 600)

	viper.SetDefault("tracing.service_name", "report-service")
	viper.SetDefault("tracing.sampler.type", "always_on")
}

func bindEnvVariables() {
	viper.BindEnv("environment", "ENVIRONMENT", "NODE_ENV")

	viper.BindEnv("server.port", "SERVER_PORT", "PORT")
	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	viper.BindEnv("ingress.agent_address", "INGRESS_AGENT_ADDRESS", "AI_AGENT_EMAIL")

	viper.BindEnv("search.api_key", "SEARCH_API_KEY", "TAVILY_API_KEY")
	viper.BindEnv("llm.api_key", "LLM_API_KEY", "GOOGLE_API_KEY")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("composio.api_key", "COMPOSIO_API_KEY")
	viper.BindEnv("composio.user_id", "COMPOSIO_USER_ID")
	viper.BindEnv("mail.provider", "MAIL_PROVIDER")
	viper.BindEnv("mail.sendgrid.api_key", "SENDGRID_API_KEY")
	viper.BindEnv("mail.sendgrid.from_email", "SENDGRID_FROM_EMAIL")
	viper.BindEnv("browser.exec_path", "BROWSER_EXEC_PATH", "CHROME_PATH")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
}

// applyEnvOverrides handles values viper cannot map from a flat env var.
func applyEnvOverrides(cfg *Config) {
	if rules := viper.GetString("INGRESS_RULES"); rules != "" {
		cfg.Ingress.Rules = splitAndTrim(rules, ";")
	}
	if fallbacks := viper.GetString("ANALYTICS_FALLBACK_ENDPOINTS"); fallbacks != "" {
		cfg.Analytics.FallbackEndpoints = splitAndTrim(fallbacks, ",")
	}
	cfg.Ingress.AgentAddress = strings.TrimSpace(cfg.Ingress.AgentAddress)
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
