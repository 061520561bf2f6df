package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/exhibit/pkg/intake"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and check intake form rulesets",
		Long: `Rulesets describe an intake form layout: field labels, block markers,
section headings and keyword lists. The embedded "gallery-intake" ruleset is
always available; --rules-dir adds or overrides rulesets from YAML files.

Examples:
  exhibit rules list
  exhibit rules show gallery-intake > my-form.yaml
  exhibit rules check my-form.yaml
  exhibit rules detect form.docx --rules-dir rules/`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesShowCmd())
	cmd.AddCommand(rulesCheckCmd())
	cmd.AddCommand(rulesDetectCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available rulesets",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			list := reg.List()
			fmt.Fprintf(out, "Rulesets (%d):\n", len(list))
			for _, rs := range list {
				fmt.Fprintf(out, "  %-20s %-8s %s\n", rs.ID, rs.Version, rs.Name)
			}
			return nil
		},
	}
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a ruleset as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ruleset.DefaultID
			if len(args) == 1 {
				id = args[0]
			}

			if id == ruleset.DefaultID && rulesDir == "" {
				_, err := cmd.OutOrStdout().Write(ruleset.DefaultYAML())
				return err
			}

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			rs, ok := reg.Get(id)
			if !ok {
				return fmt.Errorf("ruleset not found: %s", id)
			}
			data, err := ruleset.Marshal(rs)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func rulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <files...>",
		Short: "Validate and compile ruleset files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				rs, err := ruleset.Parse(data)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%s %s)\n", path, rs.ID, rs.Version)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d ruleset files failed", failed, len(args))
			}
			return nil
		},
	}
}

func rulesDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Score every ruleset against a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			doc, err := intake.NewReader(intake.WithLogger(logger)).ReadFile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			matches := ruleset.NewDetector(reg).Detect(doc.Text)
			if len(matches) == 0 {
				fmt.Fprintf(out, "No ruleset matched; %s would be used.\n", ruleset.DefaultID)
				return nil
			}
			for _, m := range matches {
				fmt.Fprintln(out, m.String())
			}
			return nil
		},
	}
}
