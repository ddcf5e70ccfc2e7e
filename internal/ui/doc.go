// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The [Model] is a small router over the client's views:
//  1. Login / Register : credential forms backed by [app.AuthController]
//  2. Home : the playlist list with create and confirm-to-delete
//  3. Playlist : one playlist's songs, rename, Spotify search and add/remove
//  4. Not found : counts down and redirects home
//
// Every navigation goes through [routes.Resolve], and so does every session change: the model subscribes
// to the [session.Store] and re-resolves the current path when the session is set or cleared, so logging
// out from any protected view lands on the login form.
//
// Gateway calls run in tea.Cmd goroutines and report back as [Msg] values tagged with a navigation
// generation. A result that arrives after its view was left is dropped. Mutate-then-refresh steps stream
// through a progress channel into the status line.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
