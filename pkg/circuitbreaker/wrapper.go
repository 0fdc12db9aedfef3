package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"mediareport/pkg/metrics"
)

type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	ReadyToTrip func(counts gobreaker.Counts) bool
	// IsSuccessful decides which errors count against the breaker. Nil means
	// !CountsAsFailure(err).
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: RatioTrip(3, 0.5),
	}
}

// RatioTrip opens the breaker once at least minRequests were seen and the
// failure ratio reaches ratio.
func RatioTrip(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < minRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// CountsAsFailure reports whether err says something about the collaborator's
// health. Cancellations and errors marked fatal (bad request, bad credentials)
// do not.
func CountsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var fatal interface{ IsFatal() bool }
	if errors.As(err, &fatal) && fatal.IsFatal() {
		return false
	}
	return true
}

type Wrapper struct {
	cb           *gobreaker.CircuitBreaker
	isSuccessful func(error) bool
}

func NewWrapper(cfg Config) *Wrapper {
	isSuccessful := cfg.IsSuccessful
	if isSuccessful == nil {
		isSuccessful = func(err error) bool { return !CountsAsFailure(err) }
	}

	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		ReadyToTrip:  cfg.ReadyToTrip,
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			setStateMetric(name, to)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	setStateMetric(cfg.Name, cb.State())

	return &Wrapper{cb: cb, isSuccessful: isSuccessful}
}

// Execute runs fn through the breaker. A done ctx short-circuits without
// touching the breaker counts.
func Execute[T any](ctx context.Context, w *Wrapper, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	var out T
	_, err := w.cb.Execute(func() (interface{}, error) {
		var err error
		out, err = fn()
		return nil, err
	})
	w.record(err)
	if err != nil {
		return zero, err
	}
	return out, nil
}

func (w *Wrapper) State() gobreaker.State {
	return w.cb.State()
}

func (w *Wrapper) Name() string {
	return w.cb.Name()
}

func (w *Wrapper) IsOpen() bool {
	return w.cb.State() == gobreaker.StateOpen
}

func setStateMetric(name string, state gobreaker.State) {
	var code float64
	switch state {
	case gobreaker.StateHalfOpen:
		code = 1
	case gobreaker.StateOpen:
		code = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(code)
}

func (w *Wrapper) record(err error) {
	metrics.CircuitBreakerRequests.WithLabelValues(w.cb.Name(), w.cb.State().String()).Inc()
	if err != nil && !w.isSuccessful(err) {
		metrics.CircuitBreakerFailures.WithLabelValues(w.cb.Name()).Inc()
	}
}
