package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docreview/internal/adapter/loader"
	"docreview/internal/adapter/splitter"
	"docreview/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Build the reference index",
	Long: `Build the vector index from reference material. Plain-text and PDF
files under the folder are split into overlapping fragments, embedded,
and persisted to the configured index directory.

Examples:
  docreview index              # Index the configured corpus directory
  docreview index ./adgm_refs  # Index a specific folder`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	folder := cfg.Corpus.Dir
	if len(args) > 0 {
		folder = args[0]
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Embedding fragments"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
			)
		}
		_ = bar.Set(done)
	}

	build := usecase.NewBuildUseCase(
		loader.New(cfg.Corpus.Includes, cfg.Corpus.Excludes),
		splitter.New(cfg.Index.WindowChars, cfg.Index.OverlapChars),
		newEmbedder,
		cfg.Index.Dir,
		progress,
	)

	fmt.Printf("Indexing %s...\n", folder)
	store, result, err := build.Build(folder)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Indexed %d fragments from %d documents into %s (model %s)\n",
		result.FragmentsIndexed, result.DocumentsLoaded, cfg.Index.Dir, store.Info().Model)
	if result.FragmentsExcluded > 0 {
		fmt.Printf("Excluded %d fragments with no computable embedding\n", result.FragmentsExcluded)
	}
	for _, skipped := range result.SkippedFiles {
		fmt.Printf("Skipped %s\n", skipped)
	}
	return nil
}
