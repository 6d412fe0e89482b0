package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docreview/internal/adapter/checklist"
	"docreview/internal/adapter/docx"
	"docreview/internal/adapter/rules"
	"docreview/internal/domain"
)

// ReviewUseCase runs the whole-document pipeline: checklist matching over
// the uploaded set, red-flag detection per document, a compliance
// judgment per flagged paragraph, and an annotated reviewed copy per
// document.
type ReviewUseCase struct {
	judge       *JudgeUseCase
	checklists  checklist.Checklists
	outputDir   string
	concurrency int
	progress    func(done, total int)
}

func NewReviewUseCase(
	judge *JudgeUseCase,
	checklists checklist.Checklists,
	outputDir string,
	concurrency int,
	progress func(done, total int),
) *ReviewUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReviewUseCase{
		judge:       judge,
		checklists:  checklists,
		outputDir:   outputDir,
		concurrency: concurrency,
		progress:    progress,
	}
}

// DocumentReview is the per-document outcome.
type DocumentReview struct {
	File         string              `json:"file"`
	ReviewedPath string              `json:"reviewed_path,omitempty"`
	Annotations  []domain.Annotation `json:"annotations"`
	Error        string              `json:"error,omitempty"`
}

// ReviewReport is the outcome of reviewing one uploaded set.
type ReviewReport struct {
	ID        string                 `json:"id"`
	Checklist domain.ChecklistReport `json:"checklist"`
	Documents []DocumentReview       `json:"documents"`
}

// Review reviews the given .docx files as one upload set. Judgments for
// independent flagged paragraphs run in parallel against the shared
// read-only index; a failed judgment or an unreadable file degrades that
// entry, never the whole batch.
func (u *ReviewUseCase) Review(ctx context.Context, paths []string) (*ReviewReport, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents to review")
	}

	process, matched := checklist.IdentifyProcess(paths, u.checklists)

	report := &ReviewReport{
		ID:        uuid.NewString(),
		Checklist: checklist.Report(process, matched, u.checklists),
	}

	for i, path := range paths {
		review := u.reviewDocument(ctx, path)
		report.Documents = append(report.Documents, review)
		if u.progress != nil {
			u.progress(i+1, len(paths))
		}
	}

	return report, nil
}

func (u *ReviewUseCase) reviewDocument(ctx context.Context, path string) DocumentReview {
	review := DocumentReview{File: filepath.Base(path)}

	text, paragraphs, err := docx.Read(path)
	if err != nil {
		review.Error = err.Error()
		return review
	}

	findings := rules.RunAll(text, paragraphs)
	annotations := make([]domain.Annotation, len(findings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, finding := range findings {
		i, finding := i, finding
		g.Go(func() error {
			annotations[i] = u.annotate(gctx, finding, paragraphs)
			return nil
		})
	}
	// Judgment failures are absorbed into annotations, so the only wait
	// error would be a context error already reflected there.
	g.Wait()

	review.Annotations = annotations

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(u.outputDir, base+"_reviewed.docx")
	if err := docx.WriteReviewed(path, annotations, outPath); err != nil {
		review.Error = err.Error()
		return review
	}
	review.ReviewedPath = outPath
	return review
}

// annotate converts a finding into an annotation, asking the judge for a
// verdict on the flagged paragraph when there is something to judge.
func (u *ReviewUseCase) annotate(ctx context.Context, finding domain.Finding, paragraphs []string) domain.Annotation {
	annotation := domain.Annotation{
		ParagraphIndex: finding.ParagraphIndex,
		FlagText:       finding.Match,
		Comment:        finding.Message,
		Severity:       finding.Severity,
	}

	if finding.Match == "" || finding.ParagraphIndex >= len(paragraphs) {
		return annotation
	}

	judgment := u.judge.Judge(ctx, paragraphs[finding.ParagraphIndex])
	if judgment.Issue != "" {
		annotation.Comment = annotation.Comment + " | " + judgment.Issue
	}
	annotation.Suggestion = judgment.Suggestion
	annotation.Citation = judgment.Citation
	return annotation
}
