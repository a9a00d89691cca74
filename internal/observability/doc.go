// Package observability provides structured logging and Prometheus metrics
// for the authentication layer.
//
// This package implements:
//   - zap logger construction from LOG_LEVEL and LOG_FORMAT
//   - login, token validation and access decision counters
//   - the /metrics handler served on the metrics listener
//
// Metric labels are low-cardinality outcomes only; principals, tokens and
// request ids never appear as label values.
package observability
