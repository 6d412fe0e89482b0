package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docreview/internal/adapter/checklist"
	"docreview/internal/adapter/index"
	"docreview/internal/domain"
	"docreview/internal/usecase"
)

var reviewCmd = &cobra.Command{
	Use:   "review file.docx...",
	Short: "Review filings end to end",
	Long: `Run the full review pipeline over one or more .docx filings:
checklist matching, red-flag detection, per-clause compliance judgments,
and an annotated reviewed copy per filing. A JSON report is written next
to the reviewed copies.

Example:
  docreview review articles_of_association.docx memorandum.docx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	// A missing index degrades to rule-only review rather than failing:
	// the operator is told how to fix it, the review still runs.
	store, err := index.Open(cfg.Index.Dir, embedder.ModelName())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v; reviewing without retrieved evidence\n", err)
		store = nil
	}

	lists, err := checklist.Load(cfg.Review.ChecklistPath)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v; skipping checklist matching\n", err)
		lists = checklist.Checklists{}
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Reviewing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)

	judge := usecase.NewJudgeUseCase(store, embedder, newBackend(), cfg.Retrieve.TopK)
	review := usecase.NewReviewUseCase(judge, lists, cfg.Review.OutputDir, cfg.Review.Concurrency,
		func(done, total int) { _ = bar.Set(done) })

	report, err := review.Review(context.Background(), args)
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	if err := os.MkdirAll(cfg.Review.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	reportPath := filepath.Join(cfg.Review.OutputDir, "review_"+report.ID+".json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Printf("Process: %s (%d/%d required documents, %d missing)\n",
		report.Checklist.Process,
		report.Checklist.DocumentsUploaded,
		report.Checklist.RequiredDocuments,
		len(report.Checklist.MissingDocuments))
	for _, doc := range report.Documents {
		if doc.Error != "" {
			fmt.Printf("  %s: error: %s\n", doc.File, doc.Error)
			continue
		}
		fmt.Printf("  %s: %d findings -> %s\n", doc.File, len(doc.Annotations), doc.ReviewedPath)
	}
	fmt.Printf("Report: %s\n", reportPath)
	return nil
}
