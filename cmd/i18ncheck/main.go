package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hack4change/moncton/internal/i18ncheck"
)

var errOutOfSync = errors.New("locales are out of sync")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errOutOfSync) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "i18ncheck",
		Short:         "Check locale files for missing and extra keys",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("dir", "locales", "directory holding one sub-directory per locale")
	root.PersistentFlags().String("base", "en", "reference locale")
	root.PersistentFlags().String("target", "fr", "locale checked against the reference")

	root.AddCommand(&cobra.Command{
		Use:   "compare",
		Short: "List every key missing in or extra in the target locale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runCompare(cmd)
			if err != nil {
				return err
			}
			printDetailed(cmd.OutOrStdout(), report)
			return outcome(report)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Print one status line per locale file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runCompare(cmd)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), report)
			return outcome(report)
		},
	})
	return root
}

func runCompare(cmd *cobra.Command) (*i18ncheck.Report, error) {
	dir, _ := cmd.Flags().GetString("dir")
	base, _ := cmd.Flags().GetString("base")
	target, _ := cmd.Flags().GetString("target")

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	return i18ncheck.Compare(os.DirFS(abs), base, target)
}

func outcome(report *i18ncheck.Report) error {
	if report.InSync() {
		return nil
	}
	return errOutOfSync
}

func printDetailed(w io.Writer, report *i18ncheck.Report) {
	fmt.Fprintf(w, "Comparing %s and %s locale files...\n", report.Base, report.Target)
	for _, f := range report.Files {
		if f.Issues() == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n%s\n", f.File, strings.Repeat("-", 50))
		if len(f.Missing) > 0 {
			fmt.Fprintf(w, "Missing in %s (%d keys):\n", report.Target, len(f.Missing))
			for _, k := range f.Missing {
				fmt.Fprintf(w, "  - %s\n", k)
			}
		}
		if len(f.Extra) > 0 {
			fmt.Fprintf(w, "Extra in %s (%d keys):\n", report.Target, len(f.Extra))
			for _, k := range f.Extra {
				fmt.Fprintf(w, "  - %s\n", k)
			}
		}
	}

	if report.InSync() {
		fmt.Fprintln(w, "\nAll files are in sync.")
		return
	}
	fmt.Fprintf(w, "\nTotal issues found: %d\n", report.Issues())
}

func printSummary(w io.Writer, report *i18ncheck.Report) {
	for _, f := range report.Files {
		if f.Issues() == 0 {
			fmt.Fprintf(w, "ok   %s\n", f.File)
			continue
		}
		fmt.Fprintf(w, "FAIL %s (missing %d, extra %d)\n", f.File, len(f.Missing), len(f.Extra))
	}
}
