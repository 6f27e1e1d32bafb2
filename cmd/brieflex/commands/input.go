package commands

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/config"
	"github.com/brieflex/brieflex/corpus"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/logger"
)

// resolvePayload determines the text a command operates on: a corpus article
// named by --article, the positional arguments, or piped stdin, in that
// order.
func resolvePayload(cmd *cobra.Command, args []string, cfg *config.Config) (string, error) {
	if articleID, _ := cmd.Flags().GetString("article"); articleID != "" {
		library, err := corpus.Load(cfg.Corpus.Dir, logger.Logger)
		if err != nil {
			return "", err
		}
		article, ok := library.Get(articleID)
		if !ok {
			return "", errors.Newf("article %q not found in %s", articleID, cfg.Corpus.Dir)
		}
		return article.Body, nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "read stdin")
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			return text, nil
		}
	}

	return "", errors.New("no input: pass text, pipe stdin, or use --article")
}

// outputLanguage resolves the per-command --lang flag against the configured
// default.
func outputLanguage(cmd *cobra.Command, cfg *config.Config) string {
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		return lang
	}
	return cfg.Output.Language
}
