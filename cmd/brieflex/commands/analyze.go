package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/display"
	"github.com/brieflex/brieflex/route"
)

const defaultAnalyzePrompt = "You are a legal analyst. Analyze the following text: identify the " +
	"obligations, rights, and conditions it establishes, and flag ambiguities. " +
	"Cite the relevant passages."

// AnalyzeCmd routes an analysis request through the invocation layer.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze legal text with the on-device model",
	Long: `Analyze legal text with the on-device model host.

The input comes from the positional arguments, piped stdin, or a corpus
article selected with --article. The newest usable host binding serves the
request; oversized inputs on the legacy binding are chunked and synthesized
automatically.

Examples:
  brieflex analyze --article gdpr-17
  cat clause.txt | brieflex analyze --lang German
  brieflex analyze --force "Der Verkäufer haftet..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		payload, err := resolvePayload(cmd, args, rt.cfg)
		if err != nil {
			return err
		}

		prompt, _ := cmd.Flags().GetString("prompt")
		if prompt == "" {
			prompt = defaultAnalyzePrompt
		}
		force, _ := cmd.Flags().GetBool("force")

		stop := rt.renderProgress()
		defer stop()

		started := time.Now()
		result := rt.router.Analyze(context.Background(), prompt, payload, route.Options{
			OutputLang: outputLanguage(cmd, rt.cfg),
			ForceReal:  force,
		})
		rt.recordOutcome("analyze", len([]rune(payload)), started, result)

		return renderResult(cmd, result)
	},
}

// renderResult prints a routed result, as JSON when requested.
func renderResult(cmd *cobra.Command, result route.Result) error {
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(result)
	}

	if !result.OK {
		pterm.Error.Printfln("%s (%s)", result.Failure.Message, result.Failure.Kind)
		if result.Failure.Retryable {
			pterm.Info.Println("This failure is retryable; try again shortly.")
		}
		return nil
	}

	fmt.Println(result.Text)
	pterm.Debug.Printfln("served by %s", result.Source)
	return nil
}

func init() {
	AnalyzeCmd.Flags().String("article", "", "Analyze a corpus article by ID")
	AnalyzeCmd.Flags().String("prompt", "", "Override the analysis system prompt")
	AnalyzeCmd.Flags().String("lang", "", "Output language (defaults to config)")
	AnalyzeCmd.Flags().Bool("force", false, "Attempt the call even when the host reports the model is not ready")
	AnalyzeCmd.Flags().BoolP("json", "j", false, "Output the full result as JSON")
}
