// Package fakeapi is an in-memory implementation of the registrar REST API.
//
// It serves the same routes, envelopes and error bodies as the production
// backend, including cascading deletes and natural-key renames, so the
// client packages can be exercised end to end without a database. The
// devserver binary runs it for local development.
package fakeapi
