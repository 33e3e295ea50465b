// Package apierr defines the error taxonomy shared by the API client, the
// session manager and the paged collection controllers.
//
// # Kinds
//
//   - NetworkError: the request never produced a response (dial, timeout, reset)
//   - APIError: the server answered with a non-success status; Message is the
//     server's "error" field, shown to the user verbatim
//   - AuthError: login or session validation was rejected; callers log out
//   - ValidationError: local required-field and format checks that fail
//     before any network call is attempted
//
// Use errors.As to recover the concrete type, or the Is* predicates for the
// common questions callers ask.
package apierr
