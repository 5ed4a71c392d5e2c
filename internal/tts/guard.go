package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexiqai/pdf-narrator/internal/observability"
	"github.com/lexiqai/pdf-narrator/internal/resilience"
)

// Guarded fails fast while a backend's circuit is open. It never retries.
type Guarded struct {
	voice   Voice
	next    Synthesizer
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps next with breaker and mirrors breaker state to metrics.
func NewGuarded(voice Voice, next Synthesizer, breaker *resilience.CircuitBreaker) *Guarded {
	breaker.OnStateChange(func(name string, state resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(state))
	})
	return &Guarded{voice: voice, next: next, breaker: breaker}
}

// Synthesize implements Synthesizer. Missing credentials and cancellation are
// caller problems and do not count against the backend.
func (g *Guarded) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var audio []byte
	var callerErr error

	err := g.breaker.Call(func() error {
		var err error
		audio, err = g.next.Synthesize(ctx, text)
		if errors.Is(err, ErrMissingCredential) || ctx.Err() != nil {
			callerErr = err
			return nil
		}
		return err
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return nil, &SynthesisError{
			Backend: string(g.voice),
			Message: fmt.Sprintf("%s is temporarily unavailable after repeated failures", g.voice),
			Err:     err,
		}
	case err != nil:
		observability.IncrementCircuitBreakerFailures(g.breaker.Name())
		return nil, err
	case callerErr != nil:
		return nil, callerErr
	}
	return audio, nil
}

// CircuitStats summarizes a backend's breaker.
type CircuitStats struct {
	State       string  `json:"state"`
	Requests    int64   `json:"requests"`
	Failures    int64   `json:"failures"`
	FailureRate float64 `json:"failure_rate"`
}

// Stats reports the breaker state and counters.
func (g *Guarded) Stats() CircuitStats {
	state, requests, failures, rate := g.breaker.GetStats()
	return CircuitStats{
		State:       state.String(),
		Requests:    requests,
		Failures:    failures,
		FailureRate: rate,
	}
}
