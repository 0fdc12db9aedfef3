package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateFilterExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{name: "valid bool expression", expr: `sender == "a@b.com"`},
		{name: "valid labels membership", expr: `"INBOX" in labels`},
		{name: "non-bool expression", expr: `subject`, wantError: true},
		{name: "invalid syntax", expr: `invalid syntax here!!!`, wantError: true},
		{name: "undefined variable", expr: `payload.status == "x"`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateFilterExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExamplesCompile(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	for name, expr := range FilterExpressionExamples {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, eval.ValidateFilterExpression(expr))
		})
	}
}

func TestEvaluateFilter(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	vars := Vars{
		Sender:    "alice@example.com",
		Recipient: "reports@example.com",
		Subject:   "Media Coverage Report Request 7",
		Body:      "Acme product launch",
		ThreadID:  "t-1",
		Labels:    []string{"INBOX", "UNREAD"},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "sender domain matches", expr: FilterExpressionExamples["sender_domain"], want: true},
		{name: "label present", expr: FilterExpressionExamples["inbox_only"], want: true},
		{name: "label absent", expr: `"SPAM" in labels`, want: false},
		{name: "body keyword", expr: FilterExpressionExamples["body_keyword_any"], want: true},
		{name: "recipient mismatch", expr: `recipient == "other@example.com"`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateFilter(context.Background(), tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateNilLabels(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	rule, err := eval.Compile(`size(labels) == 0`)
	require.NoError(t, err)

	got, err := rule.Evaluate(context.Background(), Vars{})
	require.NoError(t, err)
	assert.True(t, got)
}
