// Package models defines domain entities and persistence interfaces for spx.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): service-neutral structs used by exporters and the TUI
//   - [Playlist] : Basic playlist metadata
//   - [PlaylistExport] : Playlist with complete track listing
//   - [Track] : Song metadata with ISRC for cross-service matching
//
// 2. Persistent Entities: database-backed models with timestamps and soft delete
//   - [Session] : A named login profile holding the current Spotify credential
//   - [ExportRun] : A bulk export run with its outcome counters
//
// All persistent entities implement [Model]. The [Repository] interface defines standard CRUD operations for database access.
package models
