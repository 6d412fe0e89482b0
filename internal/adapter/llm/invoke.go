package llm

import (
	"context"
	"fmt"
	"strings"

	"docreview/internal/domain"
	"docreview/internal/port"
)

// Invoke runs a prompt against an opaque generation backend, probing the
// calling conventions the backend may satisfy in fixed priority order:
// direct call, then predict, then batch generate. The first convention
// that returns text wins; each one gets a single attempt with no retry.
// Callers that need resilience wrap Invoke in their own retry policy.
//
// Invoke returns domain.ErrGenerationUnavailable, wrapping the last
// underlying failure, only after every supported convention has been
// tried and failed.
func Invoke(ctx context.Context, backend any, prompt string) (string, error) {
	if backend == nil {
		return "", fmt.Errorf("%w: no backend configured", domain.ErrGenerationUnavailable)
	}

	var attempts int
	var lastErr error

	if c, ok := backend.(port.Caller); ok {
		attempts++
		out, err := c.Call(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(out), nil
		}
		lastErr = err
	}

	if p, ok := backend.(port.Predictor); ok {
		attempts++
		out, err := p.Predict(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(out), nil
		}
		lastErr = err
	}

	if g, ok := backend.(port.Generator); ok {
		attempts++
		result, err := g.Generate(ctx, []string{prompt})
		if err == nil {
			if text, ok := firstGeneration(result); ok {
				return strings.TrimSpace(text), nil
			}
			err = fmt.Errorf("generate returned no generations")
		}
		lastErr = err
	}

	if attempts == 0 {
		return "", fmt.Errorf("%w: backend %T supports no known calling convention",
			domain.ErrGenerationUnavailable, backend)
	}
	return "", fmt.Errorf("%w after %d attempts: %w",
		domain.ErrGenerationUnavailable, attempts, lastErr)
}

func firstGeneration(result *port.GenerateResult) (string, bool) {
	if result == nil || len(result.Generations) == 0 || len(result.Generations[0]) == 0 {
		return "", false
	}
	return result.Generations[0][0].Text, true
}
