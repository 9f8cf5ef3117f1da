// Package server runs the temporary HTTP server that completes the OAuth2
// authorization code flow for the CLI.
//
// # Router
//
// [BasicRouter] registers method patterns on an [http.ServeMux] behind a
// middleware stack; the first [Middleware] added runs first. [Handler]
// implementations carry their own route list.
//
// # OAuth Callback
//
// [OAuthHandler] serves /callback. It rejects a missing or mismatched state,
// reports the error parameter sent by the accounts service, and otherwise hands
// the code to an [Exchanger]. Only the first callback is processed; later ones
// get 400.
//
// [CallbackServer] binds the configured address, waits up to [LoginTimeout] for
// the result and then shuts itself down.
package server
