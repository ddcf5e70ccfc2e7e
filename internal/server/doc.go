// Package server provides a sandbox implementation of the playlist REST API.
//
// The sandbox keeps users, tokens and playlists in memory ([Store]) and speaks the same wire format
// as the real service: {"data": ...} on success, {"message": "..."} on failure, Mongo-style "_id"
// keys. It backs `tracklist sandbox` for local use and the gateway and controller tests.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /playlists/{id}").
// [BasicRouter.Group] shares the mux but not later middleware, which is how the playlist routes
// get [RequireToken] while the auth routes stay public.
//
// # Routes
//
//	POST   /auth/register
//	POST   /auth/login
//	GET    /playlists                       (Bearer)
//	POST   /playlists                       (Bearer)
//	GET    /playlists/{id}                  (Bearer)
//	PUT    /playlists/{id}                  (Bearer)
//	DELETE /playlists/{id}                  (Bearer)
//	POST   /playlists/{id}/songs            (Bearer)
//	DELETE /playlists/{id}/songs/{songId}   (Bearer)
//
// Passwords are hashed with bcrypt. A playlist owned by another user answers 404.
package server
