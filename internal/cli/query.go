package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docreview/internal/adapter/index"
	"docreview/internal/adapter/retriever"
)

var (
	queryText string
	queryTopK int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve reference fragments for a query",
	Long: `Search the reference index and print the most similar fragments with
their similarity scores and source files.

Example:
  docreview query -q "exclusive jurisdiction" -k 5`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	store, err := index.Open(cfg.Index.Dir, embedder.ModelName())
	if err != nil {
		return err
	}

	k := queryTopK
	if k < 1 {
		k = cfg.Retrieve.TopK
	}

	results, err := retriever.NewSemanticRetriever(store, embedder).Retrieve(queryText, k)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, r.Fragment.Source)
		fmt.Printf("   %s\n", r.Fragment.Text)
	}
	return nil
}
