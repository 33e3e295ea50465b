// Package paging implements the generic paged collection controller.
//
// One Controller drives the list screen of any resource: query state
// (search, filters, page, page size, sort), the current page of results,
// row selection, and confirmed mutations. List requests are sequence
// gated; only the response of the most recently issued request is ever
// applied, whatever order responses arrive in.
//
// Controllers are safe for concurrent use. State lives under a mutex that
// is never held across a network call or a confirmation prompt.
package paging
