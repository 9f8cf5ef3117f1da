// Package auth manages the Spotify access credential for one signed-in session.
//
// A [Manager] obtains a [Credential] by exchanging an authorization code, hands out
// "Bearer" headers, and renews the credential shortly before it expires. Renewal
// is performed at most once at a time; concurrent callers share the in-flight
// request.
//
// Failures are fail-closed: when an exchange or a renewal fails the session is
// wiped (in memory and in the optional [Store]) and callers see
// [shared.ErrNotAuthenticated] until the user logs in again. There is no retry.
package auth
