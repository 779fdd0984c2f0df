package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/songfetch/songfetch-go/internal/metadata"
	"github.com/songfetch/songfetch-go/internal/song"
)

func newResolveCommand(cc *commandContext) *cobra.Command {
	var (
		threads           int
		playlistNumbering bool
		noRefresh         bool
		jsonOutput        bool
		savePath          string
		writeTags         bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [query...]",
		Short: "Resolve queries into complete song metadata",
		Long: `Resolve accepts free-form search text, track/playlist/album/artist
links, "album:" search directives, the literal "saved", save files and
"YouTubeURL|SpotifyURL" pairs. Collections are expanded into their member
songs and every record is refreshed against the catalog.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threads") {
				threads = cfg.Resolver.Threads
			}
			if !cmd.Flags().Changed("playlist-numbering") {
				playlistNumbering = cfg.Resolver.PlaylistNumbering
			}

			r, err := cc.newResolver()
			if err != nil {
				return err
			}

			songs, err := r.ClassifyAndExpand(ctx, args)
			if err != nil {
				return err
			}
			if len(songs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No songs matched.")
				return nil
			}

			if !noRefresh {
				refreshed, err := r.Refresh(ctx, songs, threads, playlistNumbering)
				if err != nil {
					if len(refreshed) == 0 {
						return err
					}
					// Partial failure: report it, keep the survivors.
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
				}
				songs = refreshed
			}

			if savePath != "" {
				ext := cfg.Resolver.SaveExtension
				if !strings.HasSuffix(savePath, ext) {
					return fmt.Errorf("save file must use the %s extension", ext)
				}
				if err := song.WriteSaveFile(savePath, songs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d songs to %s\n", len(songs), savePath)
			}

			if writeTags {
				if err := writeLibraryTags(ctx, cc, cmd.OutOrStdout(), songs); err != nil {
					return err
				}
			}

			return printSongs(cmd.OutOrStdout(), songs, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "Concurrent refresh workers (default from config)")
	cmd.Flags().BoolVar(&playlistNumbering, "playlist-numbering", false, "Number songs by playlist position (default from config)")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Skip the catalog refresh pass")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print songs as JSON")
	cmd.Flags().StringVarP(&savePath, "save", "s", "", "Write resolved songs to a save file")
	cmd.Flags().BoolVar(&writeTags, "write-tags", false, "Write tags to matching library files")

	return cmd
}

func printSongs(out io.Writer, songs []song.Song, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(songs, "", "  ")
		if err != nil {
			return fmt.Errorf("encode songs: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	for i := range songs {
		fmt.Fprintf(out, "%3d. %s\n", i+1, formatSongLine(&songs[i]))
	}
	return nil
}

// formatSongLine renders one song for terminal output.
func formatSongLine(s *song.Song) string {
	line := s.DisplayName()
	if s.AlbumName != "" {
		line += " [" + s.AlbumName
		if s.Year > 0 {
			line += fmt.Sprintf(", %d", s.Year)
		}
		line += "]"
	} else if s.Year > 0 {
		line += fmt.Sprintf(" [%d]", s.Year)
	}
	if s.URL != "" {
		line += "  " + s.URL
	}
	return line
}

// writeLibraryTags writes catalog metadata into the library files the
// scan index maps to each resolved song.
func writeLibraryTags(ctx context.Context, cc *commandContext, out io.Writer, songs []song.Song) error {
	ss, err := cc.scanStore()
	if err != nil {
		return err
	}
	index, err := ss.Index()
	if err != nil {
		return fmt.Errorf("load library index: %w", err)
	}
	logger, err := cc.ensureLogger()
	if err != nil {
		return err
	}
	client, err := cc.ensureHTTPClient()
	if err != nil {
		return err
	}

	manager := metadata.NewManager(nil)
	fetcher := metadata.NewFetcher(client, 0)

	var tagged, missing, failed int
	for i := range songs {
		s := &songs[i]
		paths := index[s.URL]
		if len(paths) == 0 {
			missing++
			continue
		}

		var artwork []byte
		if s.CoverURL != "" {
			art, err := fetcher.Fetch(ctx, s.CoverURL)
			if err != nil {
				logger.Warn("failed to fetch cover art",
					zap.String("song", s.DisplayName()),
					zap.Error(err))
			} else {
				artwork = art
			}
		}

		for _, path := range paths {
			if err := manager.WriteSong(path, s, artwork); err != nil {
				logger.Warn("failed to write tags",
					zap.String("path", path),
					zap.Error(err))
				failed++
				continue
			}
			tagged++
		}
	}

	fmt.Fprintf(out, "Tagged %d files", tagged)
	if missing > 0 {
		fmt.Fprintf(out, ", %d songs not in the library index", missing)
	}
	fmt.Fprintln(out)

	if failed > 0 {
		return fmt.Errorf("failed to tag %d files", failed)
	}
	return nil
}
