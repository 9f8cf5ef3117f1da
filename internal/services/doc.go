// Package services implements the Spotify Web API client.
//
// # Authentication
//
// [SpotifyService] never holds tokens itself. Each request asks a [TokenProvider]
// (normally the auth.Manager) for the Authorization header, so renewal stays in
// one place.
//
// # Error Handling
//
// Non-2xx responses become an [*APIError] whose Unwrap maps the status onto a
// shared sentinel:
//   - 401: [shared.ErrTokenExpired]
//   - 404: [shared.ErrNotFound] (playlists: [shared.ErrPlaylistNotFound])
//   - 429: [shared.ErrRateLimited], with RetryAfter parsed from the header
//   - anything else: [shared.ErrAPIRequest]
//
// # Caching
//
// Immutable catalog lookups (albums, artists, tracks, shows, categories) are
// kept in an expiring LRU keyed by request URL. User library reads and
// playlists are always fetched live.
//
// # Lists
//
// Every list endpoint returns a [Page]. Items the API reports as null (removed
// or region-locked entries) are dropped before the page is returned, while
// Total keeps the server's count.
//
// # Service Interface
//
// [Service] is the provider-neutral view used by the exporter and the TUI. It
// maps Web API objects onto models.Playlist and models.Track. Imports match
// tracks by URI, then ISRC, then normalized title and artist.
package services
