// Package api implements the HTTP REST API for resultcard-server.
//
// New(store, opts) returns an http.Handler that serves:
//
//	GET    /                  plain-text greeting (or the UI when ui_dir is set)
//	GET    /healthz           store reachability
//	GET    /users             all users ([]store.User)
//	POST   /users             create a user; 201
//	PUT    /users/{id}        replace the supplied fields; 404 if unknown
//	DELETE /users/{id}        {"message": "User deleted successfully"}; 404 if unknown
//	GET    /results           all result cards, newest first
//	POST   /results           compute, store and publish a result card; 201
//	GET    /results/{id}      one result card; 404 if unknown
//	GET    /results/{id}/pdf  the card rendered as result_card.pdf
//	GET    /metrics           Prometheus exposition, when a collector is set
//	GET    /ws/results        WebSocket feed, when a feed handler is set
//
// Errors are JSON: {"error": "...", "field": "..."}. Input problems are 400,
// unknown ids 404 and store failures 500 with a generic message; the cause
// is logged, never returned.
//
// The average on POST /results is always computed here. A claimed "cgpa" or
// "sgpa" in the body that disagrees at 2 decimals is rejected.
package api
