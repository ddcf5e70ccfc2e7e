package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the playlist API with the session's token.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to the playlist API with the session's token.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Raw(ctx, http.MethodPost, path, []byte(data))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		if err := r.writeJSON(resp.JSONData, pretty); err != nil {
			return err
		}
	} else {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}

	if !resp.OK() {
		return &shared.RemoteError{Kind: shared.ErrRemoteRejection, Status: resp.StatusCode}
	}
	return nil
}

type apiDump struct {
	API       string              `json:"api"`
	User      *models.UserSummary `json:"user,omitempty"`
	DumpedAt  time.Time           `json:"dumped_at"`
	Playlists []models.Playlist   `json:"playlists"`
	Errors    []dumpError         `json:"errors,omitempty"`
}

type dumpError struct {
	PlaylistID string `json:"playlist_id,omitempty"`
	Error      string `json:"error"`
}

// APIDump fetches every playlist with its songs and prints them as one document.
//
// A playlist that fails to load is recorded in errors and the dump continues.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	r.logger.Info("dumping API state")

	dump := apiDump{
		API:       r.api.BaseURL(),
		User:      r.sessions.Session().User,
		DumpedAt:  time.Now().UTC(),
		Playlists: []models.Playlist{},
	}

	summaries, err := r.playlists.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	for _, summary := range summaries {
		playlist, err := r.playlists.Get(ctx, summary.ID)
		if err != nil {
			r.logger.Warn("failed to fetch playlist", "id", summary.ID, "error", err)
			dump.Errors = append(dump.Errors, dumpError{PlaylistID: summary.ID, Error: err.Error()})
			dump.Playlists = append(dump.Playlists, summary)
			continue
		}
		dump.Playlists = append(dump.Playlists, *playlist)
	}

	if save {
		saveFile := "api_dump.json"
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}
