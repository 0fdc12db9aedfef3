package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 5 * time.Second

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Service   string                 `json:"service,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

type registered struct {
	checker  Checker
	optional bool
}

type CheckerRegistry struct {
	service  string
	checkers []registered
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{}
}

// ForService sets the service name reported in every Health.
func (r *CheckerRegistry) ForService(name string) *CheckerRegistry {
	r.service = name
	return r
}

// Register adds a required checker: its failure makes the service unhealthy.
func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, registered{checker: checker})
}

// RegisterOptional adds a checker whose failure only degrades the service.
func (r *CheckerRegistry) RegisterOptional(checker Checker) {
	r.checkers = append(r.checkers, registered{checker: checker, optional: true})
}

// Check runs every checker concurrently, each bounded by its own timeout.
func (r *CheckerRegistry) Check(ctx context.Context) Health {
	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(r.checkers))
		overall = StatusHealthy
	)

	var g errgroup.Group
	for _, reg := range r.checkers {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := reg.checker.Check(checkCtx)
			result := CheckResult{Status: StatusHealthy, Duration: time.Since(start).String()}
			if err != nil {
				result.Message = err.Error()
				result.Status = StatusUnhealthy
				if reg.optional {
					result.Status = StatusDegraded
				}
			}

			mu.Lock()
			defer mu.Unlock()
			results[reg.checker.Name()] = result
			switch {
			case result.Status == StatusUnhealthy:
				overall = StatusUnhealthy
			case result.Status == StatusDegraded && overall == StatusHealthy:
				overall = StatusDegraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Health{
		Status:    overall,
		Service:   r.service,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string {
	return "redis"
}

func (c *RedisChecker) Check(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Breaker is the part of a circuit breaker the health check reads.
type Breaker interface {
	Name() string
	IsOpen() bool
}

type BreakerChecker struct {
	breaker Breaker
}

// NewBreakerChecker reports a collaborator as failing while its breaker is open.
func NewBreakerChecker(b Breaker) *BreakerChecker {
	return &BreakerChecker{breaker: b}
}

func (c *BreakerChecker) Name() string {
	return "breaker:" + c.breaker.Name()
}

func (c *BreakerChecker) Check(context.Context) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("circuit breaker %s is open", c.breaker.Name())
	}
	return nil
}

type FuncChecker struct {
	name string
	fn   func(ctx context.Context) error
}

func NewFuncChecker(name string, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string {
	return c.name
}

func (c *FuncChecker) Check(ctx context.Context) error {
	return c.fn(ctx)
}
