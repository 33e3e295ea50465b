// Package api is the HTTP client for the registrar REST backend.
//
// # Overview
//
// Client owns the transport: it builds requests, attaches the bearer
// credential read from a TokenSource at call time, and normalizes failures
// into the apierr taxonomy. Resource[T] layers the generic collection
// contract on top of it:
//
//   - List: GET /{resource}?search&page&per_page&sort_by&sort_order&filters
//   - Create: POST /{resource}
//   - Update: PUT /{resource}/{key}
//   - Delete: DELETE /{resource}/{key}
//   - BulkDelete: POST /{resource}/bulk-delete with {codes|ids: [...]}
//
// Auth (login, register, me, change-password) and statistics endpoints are
// methods on Client.
//
// # Authentication
//
// The token is never captured at construction. Every request asks the
// TokenSource for the current token, so a logout stops the next request
// from carrying a credential:
//
//	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
//	mgr := session.NewManager(client, tokenStore, logger)
//	client.SetTokenSource(mgr)
package api
