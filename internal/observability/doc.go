// Package observability provides structured logging and Prometheus metrics
// for the session gateway.
//
// Metrics cover guard decisions, identity provider calls and HTTP traffic.
// Logs carry the chi request ID when one is present. Session tokens are
// never logged.
package observability
