package pipeline

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"mediareport/internal/constants"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/logging"
	"mediareport/pkg/metrics"
	"mediareport/pkg/tracing"
)

// runStage runs one fatal stage. Any error or panic comes back as a
// *errors.StageError naming the stage.
func runStage[In, Out any](ctx context.Context, p *Pipeline, name string, in In, fn func(context.Context, In) (Out, error)) (out Out, err error) {
	ctx = logging.WithStage(ctx, name)
	ctx, span := tracing.StartSpan(ctx, constants.ServiceName, "pipeline."+name, attribute.String("stage", name))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.RecoverPanic(r)
		}
		if err != nil {
			var stageErr *apperrors.StageError
			if !errors.As(err, &stageErr) {
				err = apperrors.NewStageError(name, err)
			}
			p.logger.ErrorwCtx(ctx, "Stage failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		} else {
			p.logger.InfowCtx(ctx, "Stage completed", "duration_ms", time.Since(start).Milliseconds())
		}
		metrics.ObserveStageDuration(name, stageStatus(err), time.Since(start))
		tracing.EndSpan(span, err)
	}()

	p.logger.DebugwCtx(ctx, "Stage started")
	return fn(ctx, in)
}

// runOptional runs a stage whose failure degrades to fallback.
func runOptional[In, Out any](ctx context.Context, p *Pipeline, name string, in In, fallback Out, fn func(context.Context, In) (Out, error)) (Out, bool) {
	out, err := runStage(ctx, p, name, in, fn)
	if err != nil {
		metrics.IncFallbackUsage(name, "placeholder", "stage_error")
		p.logger.WarnwCtx(logging.WithStage(ctx, name), "Optional stage degraded", "error", err)
		return fallback, false
	}
	return out, true
}

func stageStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
