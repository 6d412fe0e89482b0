package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docreview/internal/domain"
	"docreview/internal/port"
)

type callerBackend struct {
	out string
	err error
}

func (b callerBackend) Call(ctx context.Context, prompt string) (string, error) {
	return b.out, b.err
}

type predictorBackend struct {
	out string
	err error
}

func (b predictorBackend) Predict(ctx context.Context, prompt string) (string, error) {
	return b.out, b.err
}

type generatorBackend struct {
	result *port.GenerateResult
	err    error
}

func (b generatorBackend) Generate(ctx context.Context, prompts []string) (*port.GenerateResult, error) {
	return b.result, b.err
}

// callerAndPredictor fails the direct call and succeeds on predict.
type callerAndPredictor struct {
	callerBackend
	predictorBackend
}

func TestInvokeNilBackend(t *testing.T) {
	_, err := Invoke(context.Background(), nil, "prompt")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestInvokeDirectCall(t *testing.T) {
	out, err := Invoke(context.Background(), callerBackend{out: "  verdict  "}, "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "verdict" {
		t.Errorf("expected trimmed output, got %q", out)
	}
}

func TestInvokePredict(t *testing.T) {
	out, err := Invoke(context.Background(), predictorBackend{out: "predicted"}, "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "predicted" {
		t.Errorf("expected predicted, got %q", out)
	}
}

func TestInvokeGenerate(t *testing.T) {
	backend := generatorBackend{
		result: &port.GenerateResult{
			Generations: [][]port.Generation{{{Text: "generated"}}},
		},
	}

	out, err := Invoke(context.Background(), backend, "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "generated" {
		t.Errorf("expected generated, got %q", out)
	}
}

func TestInvokeFallsThroughConventions(t *testing.T) {
	backend := callerAndPredictor{
		callerBackend:    callerBackend{err: fmt.Errorf("direct call unsupported")},
		predictorBackend: predictorBackend{out: "fallback worked"},
	}

	out, err := Invoke(context.Background(), backend, "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "fallback worked" {
		t.Errorf("expected fallback output, got %q", out)
	}
}

func TestInvokeDirectCallTakesPriority(t *testing.T) {
	backend := callerAndPredictor{
		callerBackend:    callerBackend{out: "direct"},
		predictorBackend: predictorBackend{out: "predicted"},
	}

	out, err := Invoke(context.Background(), backend, "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "direct" {
		t.Errorf("expected direct convention to win, got %q", out)
	}
}

func TestInvokeAllConventionsFail(t *testing.T) {
	lastFailure := fmt.Errorf("predict exploded")
	backend := callerAndPredictor{
		callerBackend:    callerBackend{err: fmt.Errorf("call exploded")},
		predictorBackend: predictorBackend{err: lastFailure},
	}

	_, err := Invoke(context.Background(), backend, "prompt")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if !errors.Is(err, lastFailure) {
		t.Errorf("expected error to wrap the last failure, got %v", err)
	}
}

func TestInvokeEmptyGenerations(t *testing.T) {
	backend := generatorBackend{result: &port.GenerateResult{}}

	_, err := Invoke(context.Background(), backend, "prompt")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable for empty generations, got %v", err)
	}
}

func TestInvokeUnknownConvention(t *testing.T) {
	_, err := Invoke(context.Background(), struct{}{}, "prompt")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable for unknown backend, got %v", err)
	}
}

func TestNewOpenAIChatMissingKey(t *testing.T) {
	t.Setenv("DOCREVIEW_TEST_MISSING_KEY", "")

	backend, ok := NewOpenAIChat("DOCREVIEW_TEST_MISSING_KEY", "gpt-4o-mini", "", 0, 0)
	if ok || backend != nil {
		t.Error("expected absent backend when API key is missing")
	}
}

func TestOpenAIChatPredict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"compliant\": false}"}}]}`)
	}))
	defer server.Close()

	t.Setenv("DOCREVIEW_TEST_API_KEY", "test-key")
	backend, ok := NewOpenAIChat("DOCREVIEW_TEST_API_KEY", "gpt-4o-mini", server.URL, 0, 5*time.Second)
	if !ok {
		t.Fatal("expected backend to be configured")
	}

	out, err := backend.Predict(context.Background(), "check this clause")
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"compliant": false}` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestOpenAIChatPredictCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	t.Setenv("DOCREVIEW_TEST_API_KEY", "test-key")
	backend, _ := NewOpenAIChat("DOCREVIEW_TEST_API_KEY", "gpt-4o-mini", server.URL, 0, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := backend.Predict(ctx, "clause"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
