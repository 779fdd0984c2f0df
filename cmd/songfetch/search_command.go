package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(cc *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search the catalog and list matching tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := cc.ensureCatalog()
			if err != nil {
				return err
			}

			term := strings.Join(args, " ")
			songs, err := catalog.SearchTracks(cmd.Context(), term, limit)
			if err != nil {
				return err
			}
			if len(songs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No results for %q\n", term)
				return nil
			}
			return printSongs(cmd.OutOrStdout(), songs, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	return cmd
}
