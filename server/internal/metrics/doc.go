// Package metrics counts HTTP requests and exposes them in the Prometheus
// text format.
//
// A Collector is both the middleware that records requests and the handler
// for GET /metrics:
//
//	http_requests_total{route,method,code}           counter
//	http_request_duration_seconds{route,method}      summary (count + sum)
//	<name> for every gauge added with Gauge           gauge
//
// Routes are recorded by their chi pattern ("/users/{id}"), never the raw path,
// so label cardinality stays bounded. Families are built as client_model
// protobufs and encoded with expfmt; no client_golang registry is involved.
package metrics
