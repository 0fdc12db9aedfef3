package ingress

import (
	"context"
	"fmt"
	"strings"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/cel"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
	"mediareport/pkg/tracing"
)

// DuplicateChecker reports whether a delivery was already processed.
type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, event models.IncomingEvent) (bool, error)
}

type Filter struct {
	agentAddress string
	rules        []*cel.Rule
	denyOnError  bool
	dedup        DuplicateChecker
	logger       logger.Logger
}

type Option func(*Filter)

// WithDuplicateChecker enables skipping of redelivered messages.
func WithDuplicateChecker(d DuplicateChecker) Option {
	return func(f *Filter) { f.dedup = d }
}

func NewFilter(cfg config.IngressConfig, log logger.Logger, opts ...Option) (*Filter, error) {
	f := &Filter{
		agentAddress: strings.TrimSpace(cfg.AgentAddress),
		denyOnError:  cfg.OnRuleError == constants.FallbackDeny,
		logger:       log,
	}

	if len(cfg.Rules) > 0 {
		evaluator, err := cel.NewEvaluator()
		if err != nil {
			return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
		}
		for i, expr := range cfg.Rules {
			rule, err := evaluator.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("ingress rule %d: %w", i, err)
			}
			f.rules = append(f.rules, rule)
		}
	}

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Evaluate decides whether event should start a report. The subject checks
// run before any I/O so unrelated mail never touches the dedup store.
func (f *Filter) Evaluate(ctx context.Context, event models.IncomingEvent) Decision {
	ctx, span := tracing.StartSpan(ctx, constants.ServiceName, "ingress.evaluate")
	defer span.End()

	d := f.evaluate(ctx, event)
	if d.Outcome == Skip {
		metrics.IncWebhookSkip(d.Reason)
	}
	return d
}

func (f *Filter) evaluate(ctx context.Context, event models.IncomingEvent) Decision {
	if !IsReportRequest(event.Subject) {
		return skip(ReasonNotReportRequest,
			"Email subject does not contain 'Media Coverage Report Request'",
			map[string]interface{}{"subject": event.Subject})
	}

	params := ParseParameters(event.Subject)
	sender := SenderAddress(event.Sender)

	if sender == event.RecipientAddress {
		return skip(ReasonSelfSent, "Self-sent emails are not processed",
			map[string]interface{}{"sender": sender, "recipient": event.RecipientAddress})
	}

	if f.agentAddress != "" && sender == f.agentAddress {
		return skip(ReasonAgentOriginated, "AI agent emails are not processed",
			map[string]interface{}{"email": sender})
	}

	if strings.TrimSpace(sender) == "" {
		return abort(ReasonMissingSender, "webhook event has no sender address")
	}
	if event.ThreadID == "" {
		return abort(ReasonMissingThread, "webhook event has no thread id")
	}

	if d, rejected := f.applyRules(ctx, event, sender); rejected {
		return d
	}

	if f.dedup != nil {
		dup, err := f.dedup.IsDuplicate(ctx, event)
		if err != nil {
			f.logger.WarnwCtx(ctx, "Dedup check failed, proceeding", "error", err)
		} else if dup {
			return skip(ReasonDuplicate, "Webhook delivery was already processed",
				map[string]interface{}{"message_id": event.MessageID, "thread_id": event.ThreadID})
		}
	}

	return proceed(params, sender)
}

func (f *Filter) applyRules(ctx context.Context, event models.IncomingEvent, sender string) (Decision, bool) {
	if len(f.rules) == 0 {
		return Decision{}, false
	}

	vars := cel.Vars{
		Sender:    sender,
		Recipient: event.RecipientAddress,
		Subject:   event.Subject,
		Body:      event.BodyText,
		ThreadID:  event.ThreadID,
		Labels:    event.LabelIDs,
	}

	for _, rule := range f.rules {
		ok, err := rule.Evaluate(ctx, vars)
		if err != nil {
			f.logger.ErrorwCtx(ctx, "Rule evaluation error", "rule", rule.Expression, "error", err)
			if f.denyOnError {
				metrics.IncFallbackUsage("ingress", "deny_on_error", "evaluation_error")
				return rejected(rule), true
			}
			metrics.IncFallbackUsage("ingress", "allow_on_error", "evaluation_error")
			continue
		}
		if !ok {
			f.logger.DebugwCtx(ctx, "Rule rejected event", "rule", rule.Expression)
			return rejected(rule), true
		}
	}
	return Decision{}, false
}

func rejected(rule *cel.Rule) Decision {
	return skip(ReasonRejectedByRule, "Email rejected by admission rule",
		map[string]interface{}{"rule": rule.Expression})
}
