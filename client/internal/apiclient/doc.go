// Package apiclient is a typed HTTP client for the resultcard REST API.
//
// Every call takes a context and makes exactly one request; nothing is
// retried. Non-2xx responses become *APIError, which matches ErrNotFound
// for 404s and ErrInvalid for 400s.
package apiclient
