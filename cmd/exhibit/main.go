package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/coolbeans/exhibit/pkg/ruleset"
)

var version = "0.1.0"

var (
	logger   = zap.NewNop()
	verbose  bool
	rulesDir string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exhibit",
		Short: "Exhibition intake form parser",
		Long: `Exhibit turns gallery exhibition intake forms (Hebrew/English) into
structured records and copy-ready CMS fields.

It reads pasted text, .txt, .docx, .odt and .html files and produces:
  - Exhibition, curator, artist and image records as JSON
  - CMS field sheets for the gallery website
  - A local library of parsed submissions
  - An HTTP API for the same operations`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&rulesDir, "rules-dir", "", "Directory of additional YAML rulesets")

	cmd.AddCommand(parseCmd())
	cmd.AddCommand(cmsCmd())
	cmd.AddCommand(rulesCmd())
	cmd.AddCommand(libraryCmd())
	cmd.AddCommand(serveCmd())

	return cmd
}

// loadRegistry returns a registry with the embedded ruleset and, when
// --rules-dir is set, every ruleset in that directory.
func loadRegistry() (*ruleset.DefaultRegistry, error) {
	if rulesDir == "" {
		return ruleset.NewRegistry(logger), nil
	}
	reg, err := ruleset.NewRegistryWithDirectory(rulesDir, logger)
	if err != nil {
		return nil, fmt.Errorf("loading rulesets from %s: %w", rulesDir, err)
	}
	return reg, nil
}

// selectRuleset returns the ruleset named id, or the best match for text when
// id is empty.
func selectRuleset(reg ruleset.Registry, id, text string) (*ruleset.Ruleset, error) {
	if id == "" {
		return ruleset.NewDetector(reg).DetectBest(text), nil
	}
	rs, ok := reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("ruleset not found: %s", id)
	}
	return rs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
