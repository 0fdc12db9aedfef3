package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	validators := []func(*Config) error{
		validateEnvironment,
		validateIngress,
		validateServerSection,
		validateSearch,
		validateLLM,
		validateComposio,
		validateMail,
		validateAnalytics,
		validateDedup,
		validateBrowser,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateEnvironment(cfg *Config) error {
	switch cfg.Environment {
	case EnvironmentProduction, EnvironmentDevelopment:
		return nil
	default:
		return &ValidationError{
			Field:   "environment",
			Message: fmt.Sprintf("unknown environment: %q (supported: production, development)", cfg.Environment),
		}
	}
}

func validateIngress(cfg *Config) error {
	switch cfg.Ingress.OnRuleError {
	case "", "allow", "deny":
	default:
		return &ValidationError{
			Field:   "ingress.on_rule_error",
			Message: fmt.Sprintf("unknown fallback: %s (supported: allow, deny)", cfg.Ingress.OnRuleError),
		}
	}
	for i, rule := range cfg.Ingress.Rules {
		if strings.TrimSpace(rule) == "" {
			return &ValidationError{Field: fmt.Sprintf("ingress.rules[%d]", i), Message: "rule cannot be empty"}
		}
	}
	return nil
}

func validateServerSection(cfg *Config) error {
	return validateServer(cfg.Server)
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		return &ValidationError{
			Field:   "server.webhook_path",
			Message: "webhook path must start with '/'",
		}
	}

	return nil
}

func validateSearch(cfg *Config) error {
	if cfg.Search.APIKey == "" {
		return &ValidationError{Field: "search.api_key", Message: "search API key is required"}
	}
	return validateURL("search.base_url", cfg.Search.BaseURL)
}

func validateLLM(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return &ValidationError{Field: "llm.api_key", Message: "LLM API key is required"}
	}
	if cfg.LLM.Model == "" {
		return &ValidationError{Field: "llm.model", Message: "LLM model is required"}
	}
	if cfg.LLM.MaxTokens <= 0 {
		return &ValidationError{Field: "llm.max_tokens", Message: "max_tokens must be positive"}
	}
	if cfg.LLM.RPM < 0 {
		return &ValidationError{Field: "llm.rpm", Message: "rpm must be non-negative"}
	}
	return validateURL("llm.base_url", cfg.LLM.BaseURL)
}

func validateComposio(cfg *Config) error {
	if cfg.Composio.APIKey == "" {
		return &ValidationError{Field: "composio.api_key", Message: "Composio API key is required"}
	}
	return validateURL("composio.base_url", cfg.Composio.BaseURL)
}

func validateMail(cfg *Config) error {
	switch cfg.Mail.Provider {
	case "composio":
		return nil
	case "sendgrid":
		if cfg.Mail.SendGrid.APIKey == "" {
			return &ValidationError{Field: "mail.sendgrid.api_key", Message: "SendGrid API key is required"}
		}
		if cfg.Mail.SendGrid.FromEmail == "" {
			return &ValidationError{Field: "mail.sendgrid.from_email", Message: "from address is required"}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "mail.provider",
			Message: fmt.Sprintf("unknown mail provider: %s (supported: composio, sendgrid)", cfg.Mail.Provider),
		}
	}
}

func validateAnalytics(cfg *Config) error {
	if !cfg.Analytics.Enabled {
		return nil
	}
	if err := validateURL("analytics.endpoint", cfg.Analytics.Endpoint); err != nil {
		return err
	}
	for i, endpoint := range cfg.Analytics.FallbackEndpoints {
		if err := validateURL(fmt.Sprintf("analytics.fallback_endpoints[%d]", i), endpoint); err != nil {
			return err
		}
	}
	if cfg.Analytics.Retry.MaxAttempts < 0 {
		return &ValidationError{Field: "analytics.retry.max_attempts", Message: "max_attempts must be non-negative"}
	}
	return nil
}

func validateDedup(cfg *Config) error {
	if !cfg.Dedup.Enabled {
		return nil
	}
	if !cfg.Redis.Enabled() {
		return &ValidationError{Field: "dedup.enabled", Message: "dedup requires redis.host"}
	}
	if cfg.Dedup.TTLSeconds <= 0 {
		return &ValidationError{Field: "dedup.ttl_seconds", Message: "ttl_seconds must be positive"}
	}
	return nil
}

func validateBrowser(cfg *Config) error {
	if cfg.Browser.ViewportWidth <= 0 || cfg.Browser.ViewportHeight <= 0 {
		return &ValidationError{Field: "browser.viewport", Message: "viewport dimensions must be positive"}
	}
	if cfg.Browser.NavigationTimeout <= 0 {
		return &ValidationError{Field: "browser.navigation_timeout", Message: "navigation timeout must be positive"}
	}
	if cfg.Browser.RenderTimeout <= 0 {
		return &ValidationError{Field: "browser.render_timeout", Message: "render timeout must be positive"}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %q", raw)}
	}
	return nil
}
