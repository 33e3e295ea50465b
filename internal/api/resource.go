// ABOUTME: Generic collection client shared by colleges, programs and students
// ABOUTME: One implementation of list/create/update/delete/bulk-delete parameterized by endpoint

package api

import (
	"context"
	"net/http"
	"net/url"
)

// Endpoint describes where a collection lives and how it names things.
type Endpoint struct {
	// Path is the collection root, e.g. "/colleges".
	Path string
	// BulkField is the JSON field carrying keys for bulk delete ("codes" or "ids").
	BulkField string
	// Singular and Plural feed fallback error messages ("college", "colleges").
	Singular string
	Plural   string
}

// Resource is the request layer for one collection.
type Resource[T any] struct {
	client   *Client
	endpoint Endpoint
}

// NewResource binds a collection endpoint to a client.
func NewResource[T any](c *Client, ep Endpoint) *Resource[T] {
	return &Resource[T]{client: c, endpoint: ep}
}

// Endpoint returns the collection descriptor.
func (r *Resource[T]) Endpoint() Endpoint {
	return r.endpoint
}

// List fetches one page of the collection.
func (r *Resource[T]) List(ctx context.Context, q Query) (*Page[T], error) {
	var env listEnvelope[T]
	err := r.client.do(ctx, call{
		method:   http.MethodGet,
		path:     r.endpoint.Path,
		query:    q.Values(),
		fallback: "Failed to fetch " + r.endpoint.Plural,
	}, &env)
	if err != nil {
		return nil, err
	}

	items := env.Data
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		TotalPages: env.Meta.TotalPages,
		TotalItems: env.Meta.TotalItems,
	}, nil
}

// Create posts a new record and returns the server's copy.
func (r *Resource[T]) Create(ctx context.Context, payload T) (T, error) {
	var out T
	err := r.client.do(ctx, call{
		method:   http.MethodPost,
		path:     r.endpoint.Path,
		body:     payload,
		fallback: "Failed to create " + r.endpoint.Singular,
	}, &out)
	return out, err
}

// Update replaces the record identified by key. The payload may carry a
// different natural key, which renames the record.
func (r *Resource[T]) Update(ctx context.Context, key string, payload T) (T, error) {
	var out T
	err := r.client.do(ctx, call{
		method:   http.MethodPut,
		path:     r.itemPath(key),
		body:     payload,
		fallback: "Failed to update " + r.endpoint.Singular,
	}, &out)
	return out, err
}

// Delete removes the record identified by key.
func (r *Resource[T]) Delete(ctx context.Context, key string) error {
	return r.client.do(ctx, call{
		method:   http.MethodDelete,
		path:     r.itemPath(key),
		fallback: "Failed to delete " + r.endpoint.Singular,
	}, nil)
}

// BulkDelete removes every record whose key is listed.
func (r *Resource[T]) BulkDelete(ctx context.Context, keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	return r.client.do(ctx, call{
		method:   http.MethodPost,
		path:     r.endpoint.Path + "/bulk-delete",
		body:     map[string][]string{r.endpoint.BulkField: keys},
		fallback: "Failed to delete " + r.endpoint.Plural,
	}, nil)
}

func (r *Resource[T]) itemPath(key string) string {
	return r.endpoint.Path + "/" + url.PathEscape(key)
}
