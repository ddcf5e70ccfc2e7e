// Package services implements the gateways the client uses to reach remote services.
//
// # Playlist API
//
// [APIService] is the HTTP client for the playlist REST API. Every response body is an envelope,
// {"data": ...} on success and {"message": "..."} on failure. A bearer token is attached when the
// configured [TokenSource] (normally the session store) has one; the gateways never check for a
// token themselves and rely on the server's 401.
//
// [AuthGateway] wraps /auth/register and /auth/login. [PlaylistGateway] wraps /playlists and the
// nested /songs collection.
//
// # Track Search
//
// [SearchGateway] sends one query per call to a [SearchProvider], always asking for [SearchLimit]
// results. Two providers exist:
//   - [RapidAPIProvider] : spotify23 proxy authenticated with X-RapidAPI-Key / X-RapidAPI-Host
//   - [SpotifyProvider] : Spotify Web API with an OAuth2 client-credentials token
//
// Provider records are kept as raw JSON and turned into songs by [NormalizeSong], which reads
// each provider's fields through a fixed gjson path schema.
//
// # Error Handling
//
// Gateways return *[shared.RemoteError] values whose Kind is one of:
//   - [shared.ErrNetwork] : no response (connection refused, timeout, canceled)
//   - [shared.ErrAuthorization] : 401 from the playlist API
//   - [shared.ErrRemoteRejection] : any other non-2xx, with the server's message
//   - [shared.ErrAuth] : register or login failed, message or "Login failed" / "Registration failed"
//   - [shared.ErrSearch] : the search provider failed
//
// Nothing is retried.
package services
