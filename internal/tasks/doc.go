// Package tasks runs long library operations with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines:
//
//  1. [Engine.Copy] : Duplicate a playlist into a new private playlist
//     - Resolves the source by ID, URI, link or exact name
//     - Keeps tracks that already carry a track URI and searches the rest
//     - Refuses to create a playlist when nothing matched
//
//  2. [Engine.Restore] : Recreate a playlist from a JSON export on disk
//
//  3. [Engine.Diff] : Compare two playlists
//     - Matches tracks via ISRC (preferred) or normalized title/artist
//     - Reports matched count, missing tracks, and extra tracks
//
//  4. [Engine.Dump] : Fetch the raw JSON of every library endpoint
//     - Profile, playlists, liked songs, saved albums and shows, follows, top items, history
//     - Failed endpoints are collected, not fatal
//
//  5. [Engine.BulkExport] : Write many playlists to disk
//     - Bounded worker pool sharing one golang.org/x/time/rate limiter
//     - JSON, CSV, Markdown or plain text, plus export_manifest.json
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. A nil channel is allowed.
//
// # Export History
//
// With [WithRecorder], each bulk export is stored as a [models.ExportRun].
// Recording failures are logged and never interrupt the export.
//
// # Implementation
//
// [PlaylistEngine] implements [Engine] with dependencies on:
//   - [services.Service] : the Web API library abstraction
//   - [APIClient] : raw authenticated GETs used by Dump
//   - [ExportRecorder] : optional persistence (repositories.ExportRepository)
package tasks
