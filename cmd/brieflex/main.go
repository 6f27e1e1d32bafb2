package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/cmd/brieflex/commands"
	"github.com/brieflex/brieflex/logger"
)

var rootCmd = &cobra.Command{
	Use:   "brieflex",
	Short: "brieflex - legal text analysis over an on-device model host",
	Long: `brieflex - AI-assisted legal text analysis.

brieflex routes analysis and summarization requests to an on-device
language-model host, picking the best available capability generation,
chunking oversized inputs, and classifying every failure into a typed,
retryable outcome.

Available commands:
  analyze      - Analyze legal text
  summarize    - Summarize legal text
  capabilities - Probe which host AI capabilities are usable
  corpus       - List articles in the local corpus
  history      - Show recent invocation history
  propose      - Draft an amendment and open a pull request for it
  serve        - Start the local notification relay server

Examples:
  brieflex capabilities            # Check what the host can do
  brieflex analyze --article gdpr-17
  cat clause.txt | brieflex summarize --lang English
  brieflex serve                   # Relay download progress to UIs`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Root().PersistentFlags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Prefer JSON output")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(commands.AnalyzeCmd)
	rootCmd.AddCommand(commands.SummarizeCmd)
	rootCmd.AddCommand(commands.CapabilitiesCmd)
	rootCmd.AddCommand(commands.CorpusCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.ProposeCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
