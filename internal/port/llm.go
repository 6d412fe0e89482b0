package port

import "context"

// The generation backend is an opaque handle probed for one of three
// calling conventions, in this priority order. A backend only has to
// satisfy one of them.

// Caller is the direct-invocation convention.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// Predictor is the named "predict" convention.
type Predictor interface {
	Predict(ctx context.Context, prompt string) (string, error)
}

// Generator is the batch convention returning a nested result structure.
type Generator interface {
	Generate(ctx context.Context, prompts []string) (*GenerateResult, error)
}

// GenerateResult holds one row of generations per input prompt.
type GenerateResult struct {
	Generations [][]Generation
}

type Generation struct {
	Text string
}
