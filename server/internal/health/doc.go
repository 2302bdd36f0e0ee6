// Package health publishes store reachability over the standard gRPC health
// protocol (grpc.health.v1.Health).
//
// A Checker pings the store every interval and flips the serving status of
// both the overall service ("") and ServiceName between SERVING and
// NOT_SERVING. Transitions are logged; steady state is not.
package health
