package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklist/internal/app"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsSearch searches the track catalog and prints the normalized results.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	searcher, err := r.searchGateway(ctx)
	if err != nil {
		return err
	}

	results, err := searcher.Search(ctx, query)
	if err != nil {
		return r.fail(app.MsgSearchFailed, err)
	}

	songs, skipped := services.NormalizeSongs(results)
	if skipped > 0 {
		r.logger.Warn("skipped malformed provider records", "count", skipped)
	}

	if n := int(cmd.Int("preview")); n > 0 {
		if n > len(songs) {
			return fmt.Errorf("%w: --preview %d, only %d results", shared.ErrInvalidArgument, n, len(songs))
		}
		if url := songs[n-1].PreviewURL; url == "" {
			r.logger.Warn("result has no preview clip", "title", songs[n-1].Title)
		} else if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	r.printSongs(songs, false)
	return nil
}

// SongsAdd searches for query and adds the picked result to a playlist.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	playlistID := cmd.StringArg("playlist")
	query := cmd.StringArg("query")
	if playlistID == "" || query == "" {
		return fmt.Errorf("%w: playlist id and search query", shared.ErrMissingArgument)
	}

	searcher, err := r.searchGateway(ctx)
	if err != nil {
		return err
	}

	ctrl := app.NewPlaylistController(playlistID, r.playlists, searcher, r.logger)
	if err := ctrl.Search(ctx, query); err != nil {
		return r.fail(ctrl.State().Notice, err)
	}

	results := ctrl.State().Results
	pick := int(cmd.Int("pick"))
	if len(results) == 0 {
		return fmt.Errorf("%w: no results for %q", shared.ErrInvalidArgument, query)
	}
	if pick < 1 || pick > len(results) {
		return fmt.Errorf("%w: --pick %d, only %d results", shared.ErrInvalidArgument, pick, len(results))
	}

	song := results[pick-1]
	if err := ctrl.AddSong(ctx, song); err != nil {
		return r.fail(mutationMessage(ctrl.State()), err)
	}

	st := ctrl.State()
	r.writePlain("✓ %s: %s - %s\n\n", st.Notice, song.Title, song.Artist)
	r.printSongs(st.Playlist.Songs, true)
	return nil
}

// SongsRemove removes a song from a playlist by its persisted id.
func (r *Runner) SongsRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	playlistID := cmd.StringArg("playlist")
	songID := cmd.StringArg("song")
	if playlistID == "" || songID == "" {
		return fmt.Errorf("%w: playlist id and song id", shared.ErrMissingArgument)
	}

	ctrl := app.NewPlaylistController(playlistID, r.playlists, nil, r.logger)
	if err := ctrl.RemoveSong(ctx, songID); err != nil {
		return r.fail(mutationMessage(ctrl.State()), err)
	}

	st := ctrl.State()
	r.writePlain("✓ %s\n\n", st.Notice)
	r.printSongs(st.Playlist.Songs, true)
	return nil
}

// mutationMessage picks the line to show after a failed playlist mutation.
//
// A failed refresh leaves the mutation's notice in place but the playlist is gone from view.
func mutationMessage(st app.PlaylistState) string {
	if st.Playlist == nil && st.Error != "" {
		return st.Error
	}
	return st.Notice
}
