// Package app holds the view controllers: the per-view state and orchestration behind each route.
//
// Controllers call the gateways in [services], normalize search results, and translate failures into
// user-facing messages. Every successful mutation is followed by a full re-fetch through [tasks.Sync];
// nothing is patched locally and a failed mutation leaves the displayed data untouched.
//
// Each controller guards its state with a mutex and hands out value snapshots, so the TUI can read
// state from its update loop while a gateway call runs in a command goroutine.
//
//   - [AuthController] : login, registration and logout
//   - [HomeController] : the playlist list with create and confirm-to-delete
//   - [PlaylistController] : one playlist with rename, track search, add and remove song
//   - [NotFoundController] : countdown back to the home route
package app
