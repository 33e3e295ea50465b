// Package resource defines the three managed record types and the
// descriptors that parameterize the generic client and controller.
//
// A Descriptor carries everything that differs between colleges, programs
// and students: endpoint, natural key, sort and filter whitelists,
// confirmation copy, local validation and table layout. The request and
// paging logic itself is written once, in packages api and paging.
package resource
