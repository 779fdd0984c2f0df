package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

func newScanCommand(cc *commandContext) *cobra.Command {
	var (
		template  string
		format    string
		showStats bool
		showDupes bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the music library and index known songs",
		Long: `Scan walks the library below the output template root, identifies each
audio file by its tags or by a catalog search on its filename, and
records the result. Use --stats or --duplicates to inspect the index
without rescanning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showStats {
				return printScanStats(cc, cmd.OutOrStdout())
			}
			if showDupes {
				return printDuplicates(cc, cmd.OutOrStdout())
			}

			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("template") {
				template = cfg.Output.Template
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Output.Format
			}

			r, err := cc.newLibraryResolver()
			if err != nil {
				return err
			}

			index, err := r.ScanLibrary(cmd.Context(), template, format)
			if err != nil {
				return err
			}

			files := 0
			for _, paths := range index {
				files += len(paths)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d songs across %d files\n", len(index), files)
			printIndexDuplicates(cmd.OutOrStdout(), index)
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Output path template to derive the scan root from (default from config)")
	cmd.Flags().StringVar(&format, "format", "", "Audio file extension to scan for (default from config)")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print library index statistics instead of scanning")
	cmd.Flags().BoolVar(&showDupes, "duplicates", false, "List songs indexed at multiple paths instead of scanning")
	cmd.MarkFlagsMutuallyExclusive("stats", "duplicates")

	return cmd
}

func printScanStats(cc *commandContext, out io.Writer) error {
	ss, err := cc.scanStore()
	if err != nil {
		return err
	}
	stats, err := ss.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Known files:  %d\n", stats.KnownFiles)
	fmt.Fprintf(out, "Unique songs: %d\n", stats.UniqueSongs)
	fmt.Fprintf(out, "Duplicates:   %d\n", stats.Duplicates)
	fmt.Fprintf(out, "From tags:    %d\n", stats.FromTags)
	fmt.Fprintf(out, "From search:  %d\n", stats.FromSearch)
	fmt.Fprintf(out, "Scan runs:    %d\n", stats.ScanRuns)
	if stats.LastScan != nil {
		fmt.Fprintf(out, "Last scan:    %s\n", stats.LastScan.Format("2006-01-02 15:04:05"))
	}

	runs, err := ss.Runs(5)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Fprintln(out, "\nRecent scans:")
		for _, run := range runs {
			fmt.Fprintf(out, "  %s  %s  %d files, %d identified, %d skipped (%.1fs)\n",
				run.StartedAt.Format("2006-01-02 15:04"), run.Root,
				run.FilesSeen, run.Identified, run.Skipped,
				float64(run.DurationMS)/1000)
		}
	}
	return nil
}

func printDuplicates(cc *commandContext, out io.Writer) error {
	ss, err := cc.scanStore()
	if err != nil {
		return err
	}
	dupes, err := ss.Duplicates()
	if err != nil {
		return err
	}
	if len(dupes) == 0 {
		fmt.Fprintln(out, "No duplicates in the library index.")
		return nil
	}
	for _, d := range dupes {
		fmt.Fprintln(out, d.URL)
		for _, path := range d.Paths {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
	return nil
}

func printIndexDuplicates(out io.Writer, index map[string][]string) {
	var dupes []string
	for url, paths := range index {
		if len(paths) > 1 {
			dupes = append(dupes, url)
		}
	}
	if len(dupes) == 0 {
		return
	}
	sort.Strings(dupes)
	fmt.Fprintf(out, "%d songs have multiple copies:\n", len(dupes))
	for _, url := range dupes {
		fmt.Fprintf(out, "  %s\n", url)
		for _, path := range index[url] {
			fmt.Fprintf(out, "    %s\n", path)
		}
	}
}
