// Package session owns the bearer token and the identity it belongs to.
//
// The Manager is the only writer of the token. The API client reads it
// through the api.TokenSource interface on every request, so a logout
// takes effect for the very next call. Tokens survive restarts through a
// TokenStore: a plain file by default, or a SQLite database.
package session
