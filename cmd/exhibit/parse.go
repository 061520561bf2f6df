package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/exhibit/pkg/cms"
	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/intake"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// parsedFile is the result for one input file.
type parsedFile struct {
	File    string                    `json:"file"`
	Ruleset string                    `json:"ruleset"`
	Record  *extract.ExhibitionRecord `json:"record"`
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse intake forms into exhibition records",
		Long: `Parse one or more intake forms and print the extracted records.

Files are converted by extension (.txt, .docx, .odt, .html). With no files,
or with "-", the form is read from standard input as text.

Examples:
  exhibit parse form.docx
  exhibit parse --format text submissions/*.docx --jobs 4
  pbpaste | exhibit parse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			rulesetID, _ := cmd.Flags().GetString("ruleset")
			jobs, _ := cmd.Flags().GetInt("jobs")

			if format != "json" && format != "text" {
				return fmt.Errorf("unknown format %q (want json or text)", format)
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			results, err := parseFiles(cmd.Context(), reg, rulesetID, args, jobs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "text" {
				for i, res := range results {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printRecord(out, res)
				}
				return nil
			}
			if len(results) == 1 {
				return writeJSON(out, results[0].Record)
			}
			return writeJSON(out, results)
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Output format (json, text)")
	cmd.Flags().String("ruleset", "", "Ruleset id (detected from the text if omitted)")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Files parsed in parallel")

	return cmd
}

func cmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cms [file]",
		Short: "Print the CMS field sheet for an intake form",
		Long: `Parse an intake form and print the copy-ready CMS fields, grouped by
CMS screen.

Examples:
  exhibit cms form.docx
  exhibit cms form.docx --gender male --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			rulesetID, _ := cmd.Flags().GetString("ruleset")
			genderFlag, _ := cmd.Flags().GetString("gender")

			gender, err := extract.ParseGender(genderFlag)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			results, err := parseFiles(cmd.Context(), reg, rulesetID, []string{path}, 1)
			if err != nil {
				return err
			}

			rs, _ := reg.Get(results[0].Ruleset)
			sheet := cms.NewBuilder(rs).Build(results[0].Record, gender)

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), sheet)
			}
			fmt.Fprint(cmd.OutOrStdout(), sheet.Text())
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.Flags().String("ruleset", "", "Ruleset id (detected from the text if omitted)")
	cmd.Flags().String("gender", "female", "Curator gender for Hebrew titles (female, male)")

	return cmd
}

// parseFiles converts and parses paths with at most jobs in flight. Results
// keep the order of paths.
func parseFiles(ctx context.Context, reg ruleset.Registry, rulesetID string, paths []string, jobs int) ([]parsedFile, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs < 1 {
		jobs = 1
	}
	reader := intake.NewReader(intake.WithLogger(logger))
	results := make([]parsedFile, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			text, err := readInput(gctx, reader, path)
			if err != nil {
				return err
			}
			rs, err := selectRuleset(reg, rulesetID, text)
			if err != nil {
				return err
			}
			p, err := extract.NewParser(rs)
			if err != nil {
				return err
			}

			rec := p.Parse(text)
			logger.Debug("parsed form",
				zap.String("file", path),
				zap.String("ruleset", rs.ID),
				zap.Int("artists", len(rec.Artists)),
				zap.Int("images", len(rec.Images)),
				zap.Int("unmatched", len(rec.Unmatched)))

			results[i] = parsedFile{File: path, Ruleset: rs.ID, Record: rec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readInput(ctx context.Context, reader *intake.Reader, path string) (string, error) {
	if path == "-" {
		doc, err := reader.Read(ctx, "stdin.txt", os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return doc.Text, nil
	}
	doc, err := reader.ReadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return doc.Text, nil
}

// printRecord writes a human-readable summary of one parsed form.
func printRecord(w io.Writer, res parsedFile) {
	rec := res.Record
	fmt.Fprintf(w, "File: %s (ruleset: %s)\n", res.File, res.Ruleset)
	fmt.Fprintln(w, strings.Repeat("=", 40))

	ex := rec.Exhibition
	fmt.Fprintf(w, "Title:    %s / %s\n", ex.TitleHeb, ex.TitleEng)
	fmt.Fprintf(w, "Dates:    %s - %s\n", ex.OpenDate, ex.CloseDate)

	c := rec.Curator
	fmt.Fprintf(w, "Curator:  %s / %s (%s)\n", c.NameHeb, c.NameEng, c.Gender)
	printIf(w, "  Phone", c.Phone)
	printIf(w, "  Email", c.Email)
	printIf(w, "  Instagram", c.Instagram)
	printIf(w, "  Website", c.Website)

	fmt.Fprintf(w, "\nArtists (%d):\n", len(rec.Artists))
	for _, a := range rec.Artists {
		fmt.Fprintf(w, "  %s. %s / %s\n", a.ID, a.NameHeb, a.NameEng)
		printIf(w, "     Phone", a.Phone)
		printIf(w, "     Email", a.Email)
		printIf(w, "     Instagram", a.Instagram)
		printIf(w, "     Website", a.Website)
	}

	fmt.Fprintf(w, "\nImages (%d):\n", len(rec.Images))
	for _, img := range rec.Images {
		fmt.Fprintf(w, "  %s. %s\n", img.ID, img.DetailsHeb)
		printIf(w, "     Accessibility", img.AccessibilityHeb)
		printIf(w, "     Details (en)", img.DetailsEng)
		printIf(w, "     Accessibility (en)", img.AccessibilityEng)
	}

	fmt.Fprintf(w, "\nPress release: %d chars, short: %d chars\n",
		len([]rune(rec.PressRelease.Full)), len([]rune(rec.PressRelease.Short)))

	printList(w, "Shifts", rec.Shifts)
	printList(w, "Events", rec.Events)
	printList(w, "Unmatched", rec.Unmatched)
}

func printIf(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "%s: %s\n", label, value)
	}
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
