package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
	"mediareport/pkg/retry"
)

const systemPrompt = "You are a PR analyst writing media coverage reports. Output raw HTML only."

const promptTemplate = `Generate a PR coverage report from the following JSON data.
Each item in the data contains fields like 'url', 'title', 'published_date', and a 'content' field.

**IMPORTANT INSTRUCTIONS:**

0.  **FIRST**: Start with an HTML <h1> tag containing the report title. Extract the main subject/person from the query %q and create a title like "[Subject Name] PR Coverage Report". The <h1> should be the very first element in your output.
1.  **DO NOT** wrap the entire output in markdown code blocks (e.g., ` + "```html" + `).
2.  **DO NOT** use Unicode escape sequences (e.g., \u003C) for HTML tags. Output raw HTML tags directly (e.g., <div>, <h3>).
3.  Each individual coverage item **MUST** be wrapped in an **HTML <div> tag**.
4.  Inside each **<div>**:
    * The 'title' field should be used to derive the source and headline.
        * The **source** (e.g., "HuffPost", "Billboard") should be extracted from the end of the 'title' field (after the last ' - ') and wrapped in an **HTML <h3> tag**.
        * The **headline** (the main part of the 'title' before the source) should be wrapped in an **HTML <h4> tag**.
        * Inside each <h4>, the headline text MUST be wrapped in an anchor tag (<a>) whose href is the "url" field for that item.
    * For the **description**:
        * Analyze and synthesize the content into a coherent summary of 2-3 sentences in a journalistic tone.
        * Avoid direct copying.
        * The summary **MUST** be wrapped in an **HTML <p> tag**.

Here is the JSON data to process:
%s
`

// NewChatModel builds an OpenAI-compatible chat model from cfg.
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return cm, nil
}

type Narrator struct {
	chat    model.BaseChatModel
	cfg     config.LLMConfig
	limiter *rate.Limiter
	policy  retry.Policy
	logger  logger.Logger
}

type Option func(*Narrator)

func WithRetryPolicy(p retry.Policy) Option {
	return func(n *Narrator) { n.policy = p }
}

func WithLimiter(l *rate.Limiter) Option {
	return func(n *Narrator) { n.limiter = l }
}

func New(chat model.BaseChatModel, cfg config.LLMConfig, log logger.Logger, opts ...Option) *Narrator {
	limit := rate.Inf
	if cfg.RPM > 0 {
		limit = rate.Limit(float64(cfg.RPM) / 60.0)
	}
	n := &Narrator{
		chat:    chat,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		policy: retry.Policy{
			MaxAttempts:     cfg.MaxRetries + 1,
			InitialInterval: 2 * time.Second,
			MaxInterval:     16 * time.Second,
			Multiplier:      2,
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type promptItem struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	PublishedDate string `json:"published_date,omitempty"`
	Content       string `json:"content"`
}

// Narrate asks the model for an HTML coverage summary of sources. The
// answer is returned as-is apart from stripped markdown fences.
func (n *Narrator) Narrate(ctx context.Context, query string, sources []models.SourceItem) (string, error) {
	items := make([]promptItem, 0, len(sources))
	for _, s := range sources {
		items = append(items, promptItem{URL: s.URL, Title: s.Title, PublishedDate: s.PublishedDate, Content: s.Content})
	}
	data, err := json.Marshal(map[string]interface{}{"query": query, "results": items})
	if err != nil {
		return "", fmt.Errorf("marshal sources: %w", err)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: fmt.Sprintf(promptTemplate, query, data)},
	}

	onRetry := func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt(constants.CollaboratorLLM)
		n.logger.WarnwCtx(ctx, "Chat model rate limited, retrying", "attempt", attempt, "next_delay", next, "error", err)
	}

	resp, err := retry.Do(ctx, n.policy, func() (*schema.Message, error) {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, retry.NewFatalError(err)
		}
		start := time.Now()
		msg, err := n.chat.Generate(ctx, messages,
			model.WithTemperature(n.cfg.Temperature),
			model.WithMaxTokens(n.cfg.MaxTokens),
		)
		if err != nil {
			metrics.ObserveCollaborator(constants.CollaboratorLLM, "error", time.Since(start))
			if isRateLimited(err) {
				return nil, retry.NewRetryableError(err)
			}
			return nil, retry.NewFatalError(err)
		}
		metrics.ObserveCollaborator(constants.CollaboratorLLM, "ok", time.Since(start))
		return msg, nil
	}, onRetry)
	if err != nil {
		return "", fmt.Errorf("generate narrative: %w", err)
	}
	if resp == nil {
		return "", nil
	}

	return Clean(resp.Content), nil
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "resource_exhausted")
}

// Clean removes a surrounding markdown code fence from model output.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```html")
		s = strings.TrimPrefix(s, "```HTML")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
