// Package tasks orchestrates multi-step playlist operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Sync.Apply] : mutate-then-refresh
//     - Runs a single mutation (create, rename, delete, add or remove a song)
//     - Only after the mutation succeeds, re-fetches the data the caller displays
//     - A failed mutation never triggers the refresh
//     - A failed refresh after a successful mutation wraps [shared.ErrRefreshAfterMutation]
//
//  2. [Exporter.BulkExport] : export playlists to disk, and optionally S3
//     - Fetches each playlist through [services.Playlists], paced by a rate limiter
//     - Writes one export per playlist from a bounded worker pool
//     - Uploads the files with an S3 upload manager when a bucket is configured
//     - Writes an export_manifest.json summarizing successes and failures
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking, so a nil or full channel never stalls an operation.
package tasks
