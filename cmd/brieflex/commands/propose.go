package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/display"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/logger"
	"github.com/brieflex/brieflex/proxy"
	"github.com/brieflex/brieflex/route"
)

const draftPromptTemplate = "You are a legislative drafter. Rewrite the following article to " +
	"address this request, keeping the article's structure and citation markers: "

// ProposeCmd drafts an amendment with the model and submits it to the
// pull-request proposal service.
var ProposeCmd = &cobra.Command{
	Use:   "propose --article <id> <change request>",
	Short: "Draft an amendment and open a pull request for it",
	Long: `Draft an amendment to a corpus article using the on-device model, then
submit it to the configured proposal service, which opens a pull request
against the document repository.

Example:
  brieflex propose --article gdpr-17 "clarify the scope of paragraph 2"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		if rt.cfg.Proxy.BaseURL == "" {
			return errors.New("no proposal service configured (proxy.base_url)")
		}

		articleID, _ := cmd.Flags().GetString("article")
		if articleID == "" {
			return errors.New("--article is required")
		}
		payload, err := resolvePayload(cmd, nil, rt.cfg)
		if err != nil {
			return err
		}

		request := args[0]
		for _, arg := range args[1:] {
			request += " " + arg
		}
		force, _ := cmd.Flags().GetBool("force")

		stop := rt.renderProgress()
		defer stop()

		ctx := context.Background()
		started := time.Now()
		result := rt.router.Analyze(ctx, draftPromptTemplate+request, payload, route.Options{
			OutputLang: outputLanguage(cmd, rt.cfg),
			ForceReal:  force,
		})
		rt.recordOutcome("propose", len([]rune(payload)), started, result)

		if !result.OK {
			return renderResult(cmd, result)
		}

		client := proxy.NewClient(rt.cfg.Proxy.BaseURL, rt.cfg.Proxy.Token, rt.cfg.Proxy.RetryMax, logger.Logger)
		resp, err := client.Propose(ctx, proxy.ProposalRequest{
			ArticleID:    articleID,
			Title:        request,
			ProposedText: result.Text,
			Source:       result.Source,
		})
		if err != nil {
			return err
		}

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(resp)
		}
		pterm.Success.Printfln("Opened pull request #%d: %s", resp.Number, resp.PullRequestURL)
		return nil
	},
}

func init() {
	ProposeCmd.Flags().String("article", "", "Corpus article the amendment targets (required)")
	ProposeCmd.Flags().String("lang", "", "Output language (defaults to config)")
	ProposeCmd.Flags().Bool("force", false, "Attempt the call even when the host reports the model is not ready")
	ProposeCmd.Flags().BoolP("json", "j", false, "Output the proposal response as JSON")
}
