package main

import (
	"context"
	"net"

	"github.com/desertthunder/tracklist/internal/server"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sandbox serves the in-memory playlist API until interrupted. State is lost on exit.
func (r *Runner) Sandbox(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Sandbox.Addr()
	}
	prefix := cmd.String("prefix")

	logger := shared.WithLogger(r.logger, "component", "sandbox")
	sandbox := server.NewSandbox(server.NewStore(), logger)

	return sandbox.ListenAndServe(ctx, addr, prefix, func(a net.Addr) {
		r.writePlain("✓ Sandbox API at http://%s%s\n", a.String(), prefix)
		r.writePlain("Point api.base_url (or TRACKLIST_API_URL) at it, then 'tracklist auth register'\n")
	})
}
