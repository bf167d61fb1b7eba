package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docsearch/backend/go/internal/config"
)

var (
	cfgFile string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Lexical search and question answering over uploaded documents",
	Long: `docsearch chunks .txt and .pdf documents into paragraphs, ranks them against
keyword queries and answers questions with a local Ollama model.

Run "docsearch serve" for the HTTP API, or use the search, ask, ingest and
stats commands directly against the persisted index.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "docsearch: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "path to the YAML config file")
}
