package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docreview/internal/adapter/index"
	"docreview/internal/usecase"
)

var (
	checkClause string
	checkTopK   int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Judge a single clause for compliance",
	Long: `Retrieve reference snippets for a clause and, when a generation
backend is configured, produce a compliance judgment. Without a backend
the retrieved evidence is printed instead of a verdict.

Example:
  docreview check -q "Disputes shall be referred to the DIFC courts."`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkClause, "clause", "q", "", "clause text (required)")
	checkCmd.Flags().IntVarP(&checkTopK, "top-k", "k", 0, "number of evidence fragments (default from config)")
	checkCmd.MarkFlagRequired("clause")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	store, err := index.Open(cfg.Index.Dir, embedder.ModelName())
	if err != nil {
		return err
	}

	k := checkTopK
	if k < 1 {
		k = cfg.Retrieve.TopK
	}

	judge := usecase.NewJudgeUseCase(store, embedder, newBackend(), k)
	judgment := judge.Judge(context.Background(), checkClause)

	out, err := json.MarshalIndent(judgment, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
