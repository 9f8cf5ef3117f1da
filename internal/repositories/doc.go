// Package repositories implements SQLite persistence for spx's entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Sessions support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [SessionRepository] : Named login profiles and their stored credential
//   - [ExportRepository] : Bulk export history with outcome counters
//   - [CredentialStore] : Adapts one session row to [auth.Store]
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
