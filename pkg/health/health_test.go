package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerRegistry(t *testing.T) {
	ok := NewFuncChecker("ok", func(context.Context) error { return nil })
	broken := NewFuncChecker("broken", func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name  string
		setup func(r *CheckerRegistry)
		want  Status
	}{
		{name: "empty registry is healthy", setup: func(*CheckerRegistry) {}, want: StatusHealthy},
		{name: "all passing", setup: func(r *CheckerRegistry) { r.Register(ok) }, want: StatusHealthy},
		{name: "optional failure degrades", setup: func(r *CheckerRegistry) {
			r.Register(ok)
			r.RegisterOptional(broken)
		}, want: StatusDegraded},
		{name: "required failure is unhealthy", setup: func(r *CheckerRegistry) {
			r.RegisterOptional(ok)
			r.Register(broken)
		}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			tt.setup(r)
			h := r.Check(context.Background())
			assert.Equal(t, tt.want, h.Status)
		})
	}
}

func TestCheckerRegistryMessages(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(NewFuncChecker("broken", func(context.Context) error { return errors.New("down") }))

	h := r.Check(context.Background())
	assert.Equal(t, "down", h.Checks["broken"].Message)
	assert.Equal(t, StatusUnhealthy, h.Checks["broken"].Status)
}

type fakeBreaker struct{ open bool }

func (b fakeBreaker) Name() string { return "search" }
func (b fakeBreaker) IsOpen() bool { return b.open }

func TestBreakerChecker(t *testing.T) {
	r := NewCheckerRegistry().ForService("report-service")
	r.RegisterOptional(NewBreakerChecker(fakeBreaker{open: true}))

	h := r.Check(context.Background())
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Equal(t, "report-service", h.Service)
	assert.Contains(t, h.Checks["breaker:search"].Message, "open")

	closed := NewCheckerRegistry()
	closed.RegisterOptional(NewBreakerChecker(fakeBreaker{}))
	assert.Equal(t, StatusHealthy, closed.Check(context.Background()).Status)
}

func TestCheckerRegistryTimesOutSlowChecks(t *testing.T) {
	r := NewCheckerRegistry()
	r.RegisterOptional(NewFuncChecker("slow", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}))
	assert.Equal(t, StatusHealthy, r.Check(context.Background()).Status)
}
