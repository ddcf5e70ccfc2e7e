// Package session holds the authenticated identity and bearer token for the running client.
//
// A [Store] is created once in main and handed to everything that needs it: the playlist
// gateway reads the token from it, the route guard reads whether it is authenticated, and
// the auth controller writes it. Views register with [Store.Subscribe] and are pushed every
// change instead of polling.
//
// An optional [Persister] (see repositories.SessionRepository) keeps the session across restarts.
package session
