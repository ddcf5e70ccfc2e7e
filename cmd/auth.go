package main

import (
	"context"
	"time"

	"github.com/desertthunder/tracklist/internal/app"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account and stores the returned session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password, err := r.password(cmd.String("password"))
	if err != nil {
		return err
	}

	ctrl := app.NewAuthController(r.auth, r.sessions, r.logger)
	if err := ctrl.Register(ctx, cmd.String("username"), cmd.String("email"), password); err != nil {
		return r.fail(ctrl.State().Error, err)
	}

	return r.writePlain("✓ Registered and signed in as %s\n", r.sessions.Session().User.Username)
}

// AuthLogin signs in and stores the returned session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	password, err := r.password(cmd.String("password"))
	if err != nil {
		return err
	}

	ctrl := app.NewAuthController(r.auth, r.sessions, r.logger)
	if err := ctrl.Login(ctx, cmd.String("email"), password); err != nil {
		return r.fail(ctrl.State().Error, err)
	}

	return r.writePlain("✓ Signed in as %s\n", r.sessions.Session().User.Username)
}

// AuthLogout clears the stored session. Logging out while signed out is not an error.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.sessions.Authenticated() {
		return r.writePlain("Not signed in\n")
	}

	app.NewAuthController(r.auth, r.sessions, r.logger).Logout()
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	Email         string     `json:"email,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	SignedInAt    *time.Time `json:"signed_in_at,omitempty"`
	API           string     `json:"api"`
}

// AuthStatus reports the current session without contacting the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s := r.sessions.Session()
	status := authStatus{Authenticated: s.Authenticated(), API: r.api.BaseURL()}
	if s.User != nil {
		status.Username = s.User.Username
		status.Email = s.User.Email
		status.UserID = s.User.ID
	}
	if !s.CreatedAt.IsZero() {
		status.SignedInAt = &s.CreatedAt
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		r.writePlain("✗ Not signed in\n")
		return r.writePlain("API: %s\n", status.API)
	}

	r.writePlain("✓ Signed in as %s", status.Username)
	if status.Email != "" {
		r.writePlain(" <%s>", status.Email)
	}
	r.writePlain("\n")
	if status.SignedInAt != nil {
		r.writePlain("Since: %s\n", humanize.Time(*status.SignedInAt))
	}
	return r.writePlain("API: %s\n", status.API)
}
