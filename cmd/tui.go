package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklist/internal/routes"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/desertthunder/tracklist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist manager at /home. The route guard sends a signed-out
// user to /login.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.TUIFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	searcher, err := r.searchGateway(ctx)
	if err != nil {
		r.logger.Warn("search disabled", "error", err)
		searcher = unavailableSearcher{err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, ui.Deps{
		Sessions:  r.sessions,
		Auth:      r.auth,
		Playlists: r.playlists,
		Searcher:  searcher,
		Logger:    r.logger,
	}, routes.HomePath)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
