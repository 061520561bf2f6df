package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coolbeans/exhibit/pkg/cms"
	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/intake"
	"github.com/coolbeans/exhibit/pkg/library"
)

func defaultLibraryPath() string {
	return ".exhibit"
}

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the library of parsed submissions",
		Long: `Manage a persistent library of parsed intake forms.

The library stores each submission's source text and extracted record on
disk, so records can be listed and re-read without parsing again.

Examples:
  exhibit library init
  exhibit library add submissions/moon.docx --tags 2024
  exhibit library import submissions/
  exhibit library list
  exhibit library show moon --format cms
  exhibit library remove moon`,
	}

	cmd.PersistentFlags().String("library", defaultLibraryPath(), "Library directory path")

	cmd.AddCommand(libraryInitCmd())
	cmd.AddCommand(libraryAddCmd())
	cmd.AddCommand(libraryImportCmd())
	cmd.AddCommand(libraryListCmd())
	cmd.AddCommand(libraryShowCmd())
	cmd.AddCommand(libraryRemoveCmd())
	cmd.AddCommand(libraryStatsCmd())

	return cmd
}

func openLibrary(cmd *cobra.Command) (*library.Library, error) {
	libraryPath, _ := cmd.Flags().GetString("library")
	lib, err := library.Open(libraryPath)
	if err != nil {
		return nil, fmt.Errorf("library not found at %s (run 'exhibit library init' first): %w", libraryPath, err)
	}
	return lib, nil
}

func libraryInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new library",
		RunE: func(cmd *cobra.Command, args []string) error {
			libraryPath, _ := cmd.Flags().GetString("library")

			lib, err := library.Init(libraryPath)
			if err != nil {
				return fmt.Errorf("failed to initialize library: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Library initialized at: %s\n", lib.Path())
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  exhibit library add path/to/form.docx")
			fmt.Fprintln(out, "  exhibit library import path/to/forms/")
			return nil
		},
	}
}

func libraryAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Parse a form and store it in the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, _ := cmd.Flags().GetString("id")
			name, _ := cmd.Flags().GetString("name")
			rulesetID, _ := cmd.Flags().GetString("ruleset")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			force, _ := cmd.Flags().GetBool("force")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			doc, err := intake.NewReader(intake.WithLogger(logger)).ReadFile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}
			rs, err := selectRuleset(reg, rulesetID, doc.Text)
			if err != nil {
				return err
			}
			parser, err := extract.NewParser(rs)
			if err != nil {
				return err
			}

			if recordID == "" {
				recordID = library.DeriveRecordID(args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Adding record: %s\n", recordID)
			fmt.Fprintf(out, "  Source: %s (%s, %d bytes)\n", doc.Name, doc.Format, len(doc.Text))

			entry, err := lib.Add(recordID, []byte(doc.Text), library.AddOptions{
				Name:       name,
				SourceName: doc.Name,
				Format:     string(doc.Format),
				Tags:       tags,
				Parser:     parser,
				Force:      force,
			})
			if err != nil {
				return fmt.Errorf("failed to add record: %w", err)
			}

			printEntry(cmd, entry)
			return nil
		},
	}

	cmd.Flags().String("id", "", "Record identifier (derived from filename if omitted)")
	cmd.Flags().String("name", "", "Human-readable name")
	cmd.Flags().String("ruleset", "", "Ruleset id (detected from the text if omitted)")
	cmd.Flags().StringSlice("tags", []string{}, "Tags for categorization")
	cmd.Flags().Bool("force", false, "Overwrite existing record")

	return cmd
}

func libraryImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Parse every supported form in a directory",
		Long: `Import converts and parses every supported document in a directory
(` + strings.Join(intake.SupportedExtensions(), ", ") + `). Record IDs derive
from file names. Files already in the library are skipped unless --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, _ := cmd.Flags().GetStringSlice("tags")
			force, _ := cmd.Flags().GetBool("force")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			report, err := library.ImportDirectory(cmd.Context(), lib, args[0], library.ImportOptions{
				Reader: intake.NewReader(intake.WithLogger(logger)),
				Tags:   tags,
				Force:  force,
			})
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, e := range report.Entries {
				line := fmt.Sprintf("  %-8s %s", e.Status, e.ID)
				if e.Error != "" {
					line += ": " + e.Error
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "\nImported %d of %d (%d skipped, %d failed)\n",
				report.Succeeded, report.TotalAttempted, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringSlice("tags", []string{}, "Tags for every imported record")
	cmd.Flags().Bool("force", false, "Re-import records already in the library")

	return cmd
}

func libraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List records in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entries := lib.List()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Library is empty.")
				return nil
			}

			fmt.Fprintf(out, "%-24s %-8s %-12s %-8s %s\n", "ID", "STATUS", "OPENS", "ARTISTS", "NAME")
			for _, e := range entries {
				artists := "-"
				if e.Counts != nil {
					artists = fmt.Sprint(e.Counts.Artists)
				}
				fmt.Fprintf(out, "%-24s %-8s %-12s %-8s %s\n", e.ID, e.Status, e.OpenDate, artists, e.Name)
			}
			return nil
		},
	}
}

func libraryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			genderFlag, _ := cmd.Flags().GetString("gender")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			entry, rec, err := lib.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(out, rec)
			case "text":
				printRecord(out, parsedFile{File: entry.SourceName, Ruleset: entry.RulesetID, Record: rec})
				return nil
			case "cms":
				gender, err := extract.ParseGender(genderFlag)
				if err != nil {
					return err
				}
				var builder *cms.Builder
				if reg, err := loadRegistry(); err == nil {
					rs, _ := reg.Get(entry.RulesetID)
					builder = cms.NewBuilder(rs)
				} else {
					builder = cms.NewBuilder(nil)
				}
				fmt.Fprint(out, builder.Build(rec, gender).Text())
				return nil
			case "source":
				src, err := lib.LoadSourceText(args[0])
				if err != nil {
					return err
				}
				_, err = out.Write(src)
				return err
			default:
				return fmt.Errorf("unknown format %q (want json, text, cms or source)", format)
			}
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Output format (json, text, cms, source)")
	cmd.Flags().String("gender", "female", "Curator gender for the cms format (female, male)")

	return cmd
}

func libraryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a record from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			if err := lib.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed record: %s\n", args[0])
			return nil
		},
	}
}

func libraryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			stats := lib.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Library: %s\n", lib.Path())
			fmt.Fprintf(out, "  Records:   %d\n", stats.TotalRecords)
			fmt.Fprintf(out, "  Artists:   %d\n", stats.TotalArtists)
			fmt.Fprintf(out, "  Images:    %d\n", stats.TotalImages)
			fmt.Fprintf(out, "  Events:    %d\n", stats.TotalEvents)
			fmt.Fprintf(out, "  Shifts:    %d\n", stats.TotalShifts)
			fmt.Fprintf(out, "  Unmatched: %d\n", stats.TotalUnmatched)
			for status, n := range stats.ByStatus {
				fmt.Fprintf(out, "  Status %-8s %d\n", status+":", n)
			}
			return nil
		},
	}
}

func printEntry(cmd *cobra.Command, entry *library.RecordEntry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Status: %s\n", entry.Status)
	if entry.Title != "" {
		fmt.Fprintf(out, "  Title: %s\n", entry.Title)
	}
	if entry.Counts != nil {
		fmt.Fprintf(out, "  Artists: %d\n", entry.Counts.Artists)
		fmt.Fprintf(out, "  Images: %d\n", entry.Counts.Images)
		fmt.Fprintf(out, "  Events: %d\n", entry.Counts.Events)
		fmt.Fprintf(out, "  Unmatched lines: %d\n", entry.Counts.Unmatched)
	}
}
