// Package repositories implements SQLite persistence for client-side state.
//
// The playlist API owns every playlist and song, so the only thing stored locally is the
// login session, which lets a restart pick up where the last run left off.
//
// Key Implementations:
//   - [SessionRepository] : Stores the live session, satisfies session.Persister
//
// Rows are never updated in place. Saving a session soft-deletes the previous live row via its
// deleted_at timestamp, and queries exclude soft-deleted rows by default.
package repositories
