package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/route"
)

// SummarizeCmd routes a summarization request through the invocation layer.
var SummarizeCmd = &cobra.Command{
	Use:   "summarize [text]",
	Short: "Summarize legal text with the on-device model",
	Long: `Summarize legal text using the host's summarizer capability.

Examples:
  brieflex summarize --article gdpr-17
  cat judgment.txt | brieflex summarize --lang English`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		payload, err := resolvePayload(cmd, args, rt.cfg)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		stop := rt.renderProgress()
		defer stop()

		started := time.Now()
		result := rt.router.Summarize(context.Background(), payload, route.Options{
			OutputLang: outputLanguage(cmd, rt.cfg),
			ForceReal:  force,
		})
		rt.recordOutcome("summarize", len([]rune(payload)), started, result)

		return renderResult(cmd, result)
	},
}

func init() {
	SummarizeCmd.Flags().String("article", "", "Summarize a corpus article by ID")
	SummarizeCmd.Flags().String("lang", "", "Output language (defaults to config)")
	SummarizeCmd.Flags().Bool("force", false, "Attempt the call even when the host reports the model is not ready")
	SummarizeCmd.Flags().BoolP("json", "j", false, "Output the full result as JSON")
}
