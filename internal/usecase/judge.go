package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docreview/internal/adapter/index"
	"docreview/internal/adapter/llm"
	"docreview/internal/adapter/retriever"
	"docreview/internal/domain"
	"docreview/internal/port"
)

const judgePrompt = `You are an expert legal compliance assistant for ADGM jurisdiction.

Task:
- Given the user's clause and the ADGM context snippets below, determine compliance.
- If non-compliant, explain the issue and provide one concrete improved clause suggestion.
- If possible include the snippet's filename or short citation.

Return a JSON object exactly with keys:
{"compliant": true/false, "issue": "...", "suggestion": "...", "citation": "..."}

User clause:
%s

Context (relevant snippets):
%s
`

const contextSeparator = "\n\n---\n\n"

// JudgeUseCase turns a clause into a compliance judgment backed by
// retrieved evidence. Index unavailability is the caller's setup concern;
// everything that goes wrong at judgment time (retrieval, generation,
// parsing) is absorbed into the returned judgment so one bad clause never
// aborts a batch.
type JudgeUseCase struct {
	store    *index.Store
	embedder port.Embedder
	backend  any
	topK     int
}

// NewJudgeUseCase creates a judge. store and backend may be nil: a nil
// store yields an unknown verdict with no citation, and a nil backend
// yields retrieved evidence without a verdict.
func NewJudgeUseCase(store *index.Store, embedder port.Embedder, backend any, topK int) *JudgeUseCase {
	if topK < 1 {
		topK = 3
	}
	return &JudgeUseCase{
		store:    store,
		embedder: embedder,
		backend:  backend,
		topK:     topK,
	}
}

// Judge evaluates a single clause. It never returns an error; the
// judgment's Issue field carries any failure diagnostics. Cancelling ctx
// aborts the generation call and falls back to evidence-only mode.
func (u *JudgeUseCase) Judge(ctx context.Context, clause string) domain.Judgment {
	if u.store == nil {
		return domain.Judgment{}
	}

	sem := retriever.NewSemanticRetriever(u.store, u.embedder)
	fragments, err := sem.Retrieve(clause, u.topK)
	if err != nil {
		return domain.Judgment{Issue: fmt.Sprintf("retrieval failed: %v", err)}
	}

	evidence := formatEvidence(fragments)

	if u.backend == nil {
		return domain.Judgment{Citation: evidence}
	}

	prompt := fmt.Sprintf(judgePrompt, clause, evidence)
	raw, err := llm.Invoke(ctx, u.backend, prompt)
	if err != nil {
		return domain.Judgment{
			Issue:    fmt.Sprintf("LLM error: %v", err),
			Citation: evidence,
		}
	}

	judgment, ok := extractJudgment(raw)
	if !ok {
		// The response was not parseable JSON; surface it verbatim so
		// the reviewer still sees what the model said.
		return domain.Judgment{
			Issue:    raw,
			Citation: evidence,
		}
	}
	return judgment
}

// formatEvidence concatenates fragment texts with source tags.
func formatEvidence(fragments []domain.ScoredFragment) string {
	parts := make([]string, 0, len(fragments))
	for _, sf := range fragments {
		parts = append(parts, sf.Fragment.Text+"\n\n[SOURCE: "+sourceTag(sf.Fragment)+"]")
	}
	return strings.Join(parts, contextSeparator)
}

func sourceTag(f domain.Fragment) string {
	if f.Page > 0 {
		return fmt.Sprintf("%s, page %d", f.Source, f.Page)
	}
	return f.Source
}

// extractJudgment performs best-effort JSON extraction: the substring
// from the first '{' to the last '}' is parsed as a judgment object.
func extractJudgment(raw string) (domain.Judgment, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return domain.Judgment{}, false
	}

	var judgment domain.Judgment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &judgment); err != nil {
		return domain.Judgment{}, false
	}
	return judgment, true
}
