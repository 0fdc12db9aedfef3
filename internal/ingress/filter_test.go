package ingress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediareport/internal/config"
	"mediareport/internal/logger"
	"mediareport/pkg/models"
)

type stubDedup struct {
	dup   bool
	err   error
	calls int
}

func (s *stubDedup) IsDuplicate(context.Context, models.IncomingEvent) (bool, error) {
	s.calls++
	return s.dup, s.err
}

func event(subject string) models.IncomingEvent {
	return models.IncomingEvent{
		Sender:           "Alice <alice@example.com>",
		RecipientAddress: "reports@example.com",
		Subject:          subject,
		BodyText:         "Acme launch",
		ThreadID:         "thread-1",
		MessageID:        "msg-1",
	}
}

func newFilter(t *testing.T, cfg config.IngressConfig, opts ...Option) *Filter {
	t.Helper()
	f, err := NewFilter(cfg, logger.NopLogger(), opts...)
	require.NoError(t, err)
	return f
}

func TestParseParameters(t *testing.T) {
	tests := []struct {
		subject string
		want    models.RequestParameters
	}{
		{"Media Coverage Report Request", models.RequestParameters{WindowDays: 30, MaxResults: 5}},
		{"Media Coverage Report Request: 7", models.RequestParameters{WindowDays: 7, MaxResults: 5}},
		{"media coverage report request 14, 3", models.RequestParameters{WindowDays: 14, MaxResults: 3}},
		{"MEDIA COVERAGE REPORT REQUEST:   60 ,10", models.RequestParameters{WindowDays: 60, MaxResults: 10}},
		{"Fwd, 9: Media Coverage Report Request", models.RequestParameters{WindowDays: 30, MaxResults: 9}},
		{"Media Coverage Report Request, 2", models.RequestParameters{WindowDays: 30, MaxResults: 2}},
		{"Media Coverage Report Request 0, 0", models.RequestParameters{WindowDays: 0, MaxResults: 0}},
		{"Media Coverage Report Request 99999999999999999999999", models.RequestParameters{WindowDays: 30, MaxResults: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseParameters(tt.subject))
		})
	}
}

func TestSenderAddress(t *testing.T) {
	assert.Equal(t, "alice@example.com", SenderAddress("Alice <alice@example.com>"))
	assert.Equal(t, "bob@example.com", SenderAddress("bob@example.com"))
	assert.Equal(t, "", SenderAddress(""))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *models.IncomingEvent)
		cfg     config.IngressConfig
		outcome Outcome
		reason  string
	}{
		{name: "report request proceeds", mutate: func(*models.IncomingEvent) {}, outcome: Proceed},
		{
			name:    "unrelated subject skipped",
			mutate:  func(e *models.IncomingEvent) { e.Subject = "Lunch?" },
			outcome: Skip,
			reason:  ReasonNotReportRequest,
		},
		{
			name:    "self-sent skipped",
			mutate:  func(e *models.IncomingEvent) { e.RecipientAddress = "alice@example.com" },
			outcome: Skip,
			reason:  ReasonSelfSent,
		},
		{
			name:    "agent originated skipped",
			mutate:  func(*models.IncomingEvent) {},
			cfg:     config.IngressConfig{AgentAddress: "alice@example.com"},
			outcome: Skip,
			reason:  ReasonAgentOriginated,
		},
		{
			name:    "empty agent address never matches",
			mutate:  func(e *models.IncomingEvent) { e.Sender = "x@example.com" },
			cfg:     config.IngressConfig{AgentAddress: ""},
			outcome: Proceed,
		},
		{
			name:    "missing thread aborts",
			mutate:  func(e *models.IncomingEvent) { e.ThreadID = "" },
			outcome: Abort,
			reason:  ReasonMissingThread,
		},
		{
			name: "missing sender aborts",
			mutate: func(e *models.IncomingEvent) {
				e.Sender = ""
			},
			outcome: Abort,
			reason:  ReasonMissingSender,
		},
		{
			name:    "rule rejection skipped",
			mutate:  func(*models.IncomingEvent) {},
			cfg:     config.IngressConfig{Rules: []string{`sender.endsWith("@corp.example")`}},
			outcome: Skip,
			reason:  ReasonRejectedByRule,
		},
		{
			name:    "rule accepts",
			mutate:  func(*models.IncomingEvent) {},
			cfg:     config.IngressConfig{Rules: []string{`sender.endsWith("@example.com")`, `thread_id != ""`}},
			outcome: Proceed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := event("Media Coverage Report Request 7, 3")
			tt.mutate(&e)

			d := newFilter(t, tt.cfg).Evaluate(context.Background(), e)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestEvaluateProceedCarriesParameters(t *testing.T) {
	d := newFilter(t, config.IngressConfig{}).Evaluate(context.Background(), event("Media Coverage Report Request 7, 3"))

	require.Equal(t, Proceed, d.Outcome)
	assert.Equal(t, models.RequestParameters{WindowDays: 7, MaxResults: 3}, d.Params)
	assert.Equal(t, "alice@example.com", d.SenderAddress)
}

func TestEvaluateSkipDetails(t *testing.T) {
	e := event("Media Coverage Report Request")
	e.RecipientAddress = "alice@example.com"

	d := newFilter(t, config.IngressConfig{}).Evaluate(context.Background(), e)
	require.Equal(t, Skip, d.Outcome)
	assert.Equal(t, "Self-sent emails are not processed", d.Message)
	assert.Equal(t, "alice@example.com", d.Details["sender"])
	assert.Equal(t, "alice@example.com", d.Details["recipient"])
}

func TestEvaluateDedup(t *testing.T) {
	t.Run("duplicate skipped", func(t *testing.T) {
		d := newFilter(t, config.IngressConfig{}, WithDuplicateChecker(&stubDedup{dup: true})).
			Evaluate(context.Background(), event("Media Coverage Report Request"))
		assert.Equal(t, Skip, d.Outcome)
		assert.Equal(t, ReasonDuplicate, d.Reason)
	})

	t.Run("store error proceeds", func(t *testing.T) {
		d := newFilter(t, config.IngressConfig{}, WithDuplicateChecker(&stubDedup{err: errors.New("down")})).
			Evaluate(context.Background(), event("Media Coverage Report Request"))
		assert.Equal(t, Proceed, d.Outcome)
	})

	t.Run("not consulted for unrelated mail", func(t *testing.T) {
		stub := &stubDedup{dup: true}
		d := newFilter(t, config.IngressConfig{}, WithDuplicateChecker(stub)).
			Evaluate(context.Background(), event("hello"))
		assert.Equal(t, ReasonNotReportRequest, d.Reason)
		assert.Zero(t, stub.calls)
	})
}

func TestNewFilterRejectsBadRule(t *testing.T) {
	_, err := NewFilter(config.IngressConfig{Rules: []string{"subject"}}, logger.NopLogger())
	assert.Error(t, err)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "abort", Abort.String())
}
