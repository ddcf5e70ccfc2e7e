package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tracklist/internal/app"
	"github.com/desertthunder/tracklist/internal/formatter"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/desertthunder/tracklist/internal/tasks"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the signed-in user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	home := app.NewHomeController(r.playlists, r.logger)
	if err := home.Load(ctx); err != nil {
		return r.fail(home.State().Error, err)
	}

	playlists := home.State().Playlists
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	r.printPlaylists(playlists)
	return nil
}

// PlaylistsCreate creates a playlist and prints the refreshed list.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	home := app.NewHomeController(r.playlists, r.logger)
	if err := home.Create(ctx, name); err != nil {
		return r.fail(home.State().Error, err)
	}

	r.writePlain("✓ Created playlist %q\n\n", name)
	r.printPlaylists(home.State().Playlists)
	return nil
}

// PlaylistsRename renames a playlist.
func (r *Runner) PlaylistsRename(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	ctrl := app.NewPlaylistController(id, r.playlists, nil, r.logger)
	if err := ctrl.Rename(ctx, cmd.StringArg("name")); err != nil {
		return r.fail(mutationMessage(ctrl.State()), err)
	}

	st := ctrl.State()
	return r.writePlain("✓ %s: %s\n", st.Notice, st.Playlist.Name)
}

// PlaylistsDelete deletes a playlist after confirmation.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	home := app.NewHomeController(r.playlists, r.logger)
	home.RequestDelete(id)

	if !cmd.Bool("yes") {
		ok, err := r.prompt.Confirm(fmt.Sprintf("Delete playlist %s?", id))
		if err != nil {
			return err
		}
		if !ok {
			home.CancelDelete()
			return r.writePlain("Canceled\n")
		}
	}

	if err := home.ConfirmDelete(ctx); err != nil {
		return r.fail(home.State().Error, err)
	}

	r.writePlain("✓ Deleted playlist %s\n\n", id)
	r.printPlaylists(home.State().Playlists)
	return nil
}

// PlaylistsShow prints one playlist with its songs.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	ctrl := app.NewPlaylistController(cmd.StringArg("id"), r.playlists, nil, r.logger)
	if err := ctrl.Load(ctx); err != nil {
		return r.fail(ctrl.State().Error, err)
	}
	playlist := ctrl.State().Playlist

	if cmd.Bool("open") {
		cover := formatter.CoverURL(playlist)
		if cover == "" {
			r.logger.Warn("playlist has no cover art", "id", playlist.ID)
		} else if err := shared.OpenBrowser(cover); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	r.writePlain("ID: %s\n", playlist.ID)
	r.writePlain("Songs: %d\n\n", len(playlist.Songs))
	r.printSongs(playlist.Songs, true)
	return nil
}

// PlaylistsExport writes playlists to files, optionally uploading them to S3.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	cfg := r.config.Export
	opts := tasks.BulkExportOpts{
		Format:      cfg.Format,
		OutputDir:   cfg.OutputDir,
		NumWorkers:  cfg.Workers,
		RateLimit:   cfg.RateLimit,
		FetchCovers: cmd.Bool("covers"),
		Bucket:      cfg.Bucket,
		Prefix:      cfg.Prefix,
	}
	if v := cmd.String("format"); v != "" {
		opts.Format = v
	}
	if v := cmd.String("output"); v != "" {
		opts.OutputDir = v
	}
	if v := int(cmd.Int("workers")); v > 0 {
		opts.NumWorkers = v
	}
	if v := float64(cmd.Float("rate")); v > 0 {
		opts.RateLimit = v
	}
	if v := cmd.String("bucket"); v != "" {
		opts.Bucket = v
	}
	if cmd.IsSet("prefix") {
		opts.Prefix = cmd.String("prefix")
	}

	exporterOpts := []tasks.ExporterOption{tasks.WithExportLogger(r.logger)}
	if opts.Bucket != "" {
		if r.uploader == nil {
			uploader, err := tasks.NewS3Uploader(cfg.Region)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
			}
			r.uploader = uploader
		}
		exporterOpts = append(exporterOpts, tasks.WithUploader(r.uploader))
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	start := time.Now()
	result, err := tasks.NewExporter(r.playlists, exporterOpts...).BulkExport(ctx, progress, cmd.Args().Slice(), opts)
	close(progress)
	<-done

	if result != nil {
		r.printExportSummary(result, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d of %d playlists failed to export", shared.ErrRemoteRejection, result.FailedExports, result.TotalPlaylists)
	}
	return nil
}

func (r *Runner) printPlaylists(playlists []models.Playlist) {
	if len(playlists) == 0 {
		r.writePlain("No playlists yet\n")
		return
	}
	for _, p := range playlists {
		r.writePlain("%-26s %-32s %s\n", p.ID, p.Name, songCount(len(p.Songs)))
	}
}

func (r *Runner) printSongs(songs []models.Song, withIDs bool) {
	if len(songs) == 0 {
		r.writePlain("No songs\n")
		return
	}
	for i, s := range songs {
		r.writePlain("%2d. %s - %s [%s]", i+1, s.Title, s.Artist, shared.FormatDurationMS(s.DurationMS))
		if s.Album != "" {
			r.writePlain("  %s", s.Album)
		}
		if withIDs && s.Persisted() {
			r.writePlain("  (%s)", s.ID)
		}
		r.writePlain("\n")
	}
}

func (r *Runner) printExportSummary(result *tasks.BulkExportResult, elapsed time.Duration) {
	r.writePlainln("Export finished in %s", elapsed.Round(time.Millisecond))
	r.writePlain("Playlists: %d exported, %d failed\n", result.SuccessfulExports, result.FailedExports)
	if result.OutputDirectory != "" {
		r.writePlain("Output: %s\n", result.OutputDirectory)
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	for _, res := range result.Results {
		if res.Success {
			r.writePlain("  ✓ %s (%s)\n", res.PlaylistName, english.Plural(len(res.Files), "file", "files"))
			continue
		}
		r.writePlain("  ✗ %s: %v\n", res.PlaylistName, res.Error)
	}
}

func songCount(n int) string {
	return english.Plural(n, "song", "songs")
}
