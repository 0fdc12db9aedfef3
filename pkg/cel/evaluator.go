package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Vars are the email attributes visible to admission expressions.
type Vars struct {
	Sender    string
	Recipient string
	Subject   string
	Body      string
	ThreadID  string
	Labels    []string
}

func (v Vars) activation() map[string]interface{} {
	labels := v.Labels
	if labels == nil {
		labels = []string{}
	}
	return map[string]interface{}{
		"sender":    v.Sender,
		"recipient": v.Recipient,
		"subject":   v.Subject,
		"body":      v.Body,
		"thread_id": v.ThreadID,
		"labels":    labels,
	}
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("sender", cel.StringType),
		cel.Variable("recipient", cel.StringType),
		cel.Variable("subject", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("thread_id", cel.StringType),
		cel.Variable("labels", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// Rule is a compiled boolean expression.
type Rule struct {
	Expression string
	program    cel.Program
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	_, err := e.Compile(expression)
	return err
}

func (e *Evaluator) Compile(expression string) (*Rule, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Rule{Expression: expression, program: program}, nil
}

func (r *Rule) Evaluate(ctx context.Context, vars Vars) (bool, error) {
	result, _, err := r.program.ContextEval(ctx, vars.activation())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

// EvaluateFilter compiles and evaluates expression in one step.
func (e *Evaluator) EvaluateFilter(ctx context.Context, expression string, vars Vars) (bool, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return false, err
	}
	return rule.Evaluate(ctx, vars)
}
