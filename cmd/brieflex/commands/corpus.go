package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/config"
	"github.com/brieflex/brieflex/corpus"
	"github.com/brieflex/brieflex/display"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/logger"
)

// CorpusCmd lists the articles available in the local corpus.
var CorpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "List articles in the local corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "load configuration")
		}

		library, err := corpus.Load(cfg.Corpus.Dir, logger.Logger)
		if err != nil {
			return err
		}
		articles := library.List()

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(articles)
		}

		if len(articles) == 0 {
			pterm.Info.Printfln("No articles found in %s", cfg.Corpus.Dir)
			return nil
		}

		rows := pterm.TableData{{"ID", "Title", "Jurisdiction"}}
		for _, article := range articles {
			rows = append(rows, []string{article.ID, article.Title, article.Jurisdiction})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	CorpusCmd.Flags().BoolP("json", "j", false, "Output articles as JSON")
}
