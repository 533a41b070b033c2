package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const breakerComponent = "redis"

// ErrCircuitOpen is returned for commands rejected while the breaker is open
// or probing. The meme-of-the-day cache treats it like any other L2 failure
// and falls through to PostgreSQL.
var ErrCircuitOpen = errors.New("redis circuit breaker open")

// BreakerSettings configures the Redis circuit breaker.
type BreakerSettings struct {
	MinRequests      uint32
	FailureRatio     float64
	Interval         time.Duration // rolling window for the closed state
	OpenTimeout      time.Duration // open -> half-open delay
	HalfOpenRequests uint32
}

// DefaultBreakerSettings trips at 60% failures over at least 5 requests in a
// 10s window and probes again after 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:      5,
		FailureRatio:     0.6,
		Interval:         10 * time.Second,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// CircuitBreakerHook implements goredis.Hook and fails fast while Redis is
// unhealthy. A cache miss (goredis.Nil) counts as success.
type CircuitBreakerHook struct {
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.StoreMetrics
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

func NewCircuitBreakerHook(settings BreakerSettings, m *metrics.StoreMetrics) *CircuitBreakerHook {
	h := &CircuitBreakerHook{metrics: m}
	h.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerComponent,
		MaxRequests: settings.HalfOpenRequests,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		OnStateChange: h.onStateChange,
	})
	if m != nil {
		m.CircuitBreakerState.WithLabelValues(breakerComponent).Set(stateValue(gobreaker.StateClosed))
	}
	return h
}

func (h *CircuitBreakerHook) onStateChange(name string, from, to gobreaker.State) {
	slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
	if h.metrics == nil {
		return
	}
	h.metrics.CircuitBreakerTransitions.WithLabelValues(name, to.String()).Inc()
	h.metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State reports the breaker's current state.
func (h *CircuitBreakerHook) State() gobreaker.State {
	return h.cb.State()
}

// DialHook is a pass-through; failed dials surface as command errors.
func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		return h.execute(func() error { return next(ctx, cmd) })
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		return h.execute(func() error { return next(ctx, cmds) })
	}
}

func (h *CircuitBreakerHook) execute(fn func() error) error {
	var cmdErr error
	_, err := h.cb.Execute(func() (interface{}, error) {
		cmdErr = fn()
		if cmdErr == nil || errors.Is(cmdErr, goredis.Nil) {
			return nil, nil
		}
		return nil, cmdErr
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return cmdErr
}
