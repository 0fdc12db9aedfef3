package config

import (
	"time"

	"mediareport/pkg/circuitbreaker"
	"mediareport/pkg/retry"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)

type Config struct {
	Environment    string               `mapstructure:"environment"`
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Ingress        IngressConfig        `mapstructure:"ingress"`
	Dedup          DedupConfig          `mapstructure:"dedup"`
	Search         SearchConfig         `mapstructure:"search"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Browser        BrowserConfig        `mapstructure:"browser"`
	Composio       ComposioConfig       `mapstructure:"composio"`
	Mail           MailConfig           `mapstructure:"mail"`
	Analytics      AnalyticsConfig      `mapstructure:"analytics"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
	WebhookPath         string        `mapstructure:"webhook_path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type IngressConfig struct {
	AgentAddress string   `mapstructure:"agent_address"`
	Rules        []string `mapstructure:"rules"`
	OnRuleError  string   `mapstructure:"on_rule_error"` // "allow" (default) or "deny"
}

type DedupConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

type SearchConfig struct {
	BaseURL         string            `mapstructure:"base_url"`
	APIKey          string            `mapstructure:"api_key"`
	Topic           string            `mapstructure:"topic"`
	Depth           string            `mapstructure:"depth"`
	Country         string            `mapstructure:"country"`
	ChunksPerSource int               `mapstructure:"chunks_per_source"`
	Timeout         time.Duration     `mapstructure:"timeout"`
	Readability     ReadabilityConfig `mapstructure:"readability"`
	Retry           RetryConfig       `mapstructure:"retry"`
}

// ReadabilityConfig controls expansion of thin search snippets with extracted article text.
type ReadabilityConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MinChars     int           `mapstructure:"min_chars"`
	MaxChars     int           `mapstructure:"max_chars"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	RPM         int           `mapstructure:"rpm"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

type BrowserConfig struct {
	ExecPath          string        `mapstructure:"exec_path"`
	Headless          bool          `mapstructure:"headless"`
	ViewportWidth     int64         `mapstructure:"viewport_width"`
	ViewportHeight    int64         `mapstructure:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	RenderTimeout     time.Duration `mapstructure:"render_timeout"`
}

type ComposioConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	UserID  string        `mapstructure:"user_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MailConfig struct {
	Provider string         `mapstructure:"provider"`
	SendGrid SendGridConfig `mapstructure:"sendgrid"`
}

type SendGridConfig struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
	Host      string `mapstructure:"host"`
}

type AnalyticsConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	FallbackEndpoints []string      `mapstructure:"fallback_endpoints"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTLSeconds   int           `mapstructure:"cache_ttl_seconds"`
	Retry             RetryConfig   `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

func (c RetryConfig) Policy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.InitialInterval > 0 {
		p.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		p.MaxInterval = c.MaxInterval
	}
	if c.Multiplier > 0 {
		p.Multiplier = c.Multiplier
	}
	return p
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// Breaker applies the configured thresholds on top of the defaults.
func (c CircuitBreakerConfig) Breaker(name string) circuitbreaker.Config {
	cb := circuitbreaker.DefaultConfig(name)
	if c.MaxRequests > 0 {
		cb.MaxRequests = c.MaxRequests
	}
	if c.Interval > 0 {
		cb.Interval = c.Interval
	}
	if c.Timeout > 0 {
		cb.Timeout = c.Timeout
	}
	if c.FailureRatio > 0 && c.MinRequests > 0 {
		cb.ReadyToTrip = circuitbreaker.RatioTrip(c.MinRequests, c.FailureRatio)
	}
	return cb
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
