package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
)

// ErrCircuitOpen is returned while the provider's breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig controls when a provider is considered unhealthy.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a trial call.
	Timeout time.Duration
	// HalfOpenMaxRequests is the number of trial calls allowed while half-open.
	HalfOpenMaxRequests uint32
}

// DefaultBreakerConfig opens after 3 failures for 30 seconds
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second, HalfOpenMaxRequests: 2}
}

// Breaker guards one provider. Every call, streaming or not, counts towards
// the same circuit and is recorded in llm_requests_total.
type Breaker struct {
	provider string
	cb       *gobreaker.CircuitBreaker
	metrics  *metrics.Collector
}

// NewBreaker creates the breaker for provider. logger and m may be nil.
func NewBreaker(provider string, cfg BreakerConfig, logger *zap.Logger, m *metrics.Collector) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        provider,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// The caller going away says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Breaker{provider: provider, cb: gobreaker.NewCircuitBreaker(settings), metrics: m}
}

// Do runs fn through the circuit breaker
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	switch {
	case err == nil:
		b.metrics.LLMRequest(b.provider, metrics.OutcomeSuccess)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.metrics.LLMRequest(b.provider, metrics.OutcomeCircuitOpen)
		return ErrCircuitOpen
	default:
		b.metrics.LLMRequest(b.provider, metrics.OutcomeError)
	}
	return err
}

// State returns "closed", "open" or "half-open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}
