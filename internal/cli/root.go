package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docreview/config"
	"docreview/internal/adapter/embedding"
	"docreview/internal/adapter/llm"
	"docreview/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docreview",
	Short: "Review legal filings against ADGM reference material",
	Long: `docreview indexes ADGM reference documents into a local vector index,
flags risky phrasing in uploaded filings, and judges flagged clauses
against retrieved reference snippets.

Example usage:
  docreview index legal_refs         # Build the reference index
  docreview query -q "jurisdiction"  # Retrieve reference snippets
  docreview check -q "<clause>"      # Judge a single clause
  docreview review contract.docx     # Review a filing end to end`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Credentials commonly live in a .env next to the working
		// directory; absence is fine.
		_ = godotenv.Load()

		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docreview.yaml)")
}

func GetConfig() *config.Config {
	return cfg
}

// newEmbedder builds the configured embedder.
func newEmbedder() (port.Embedder, error) {
	c := GetConfig().Embedding
	switch c.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(c.Model, c.BaseURL)
	case "mock":
		dim := c.Dimension
		if dim <= 0 {
			dim = 16
		}
		return embedding.NewMockEmbedder(dim), nil
	default:
		if c.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(c.APIKeyEnv, c.Model, c.BaseURL)
		}
		return embedding.NewOpenAIEmbedder(c.APIKeyEnv, c.Model)
	}
}

// newBackend builds the generation backend, or nil when generation is
// disabled or no credentials are configured.
func newBackend() any {
	c := GetConfig().LLM
	if !c.Enabled {
		return nil
	}
	backend, ok := llm.NewOpenAIChat(c.APIKeyEnv, c.Model, c.BaseURL, c.Temperature,
		time.Duration(c.TimeoutSecs)*time.Second)
	if !ok {
		fmt.Fprintf(os.Stderr, "warning: %s not set, clause checks run in evidence-only mode\n", c.APIKeyEnv)
		return nil
	}
	return backend
}
