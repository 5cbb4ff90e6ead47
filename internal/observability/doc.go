// Package observability provides structured logging and Prometheus metrics
// for the storefront assistant.
//
// This package implements:
//   - zap logger construction from LOG_LEVEL / LOG_FORMAT
//   - Prometheus collectors for retrieval tiers, embedding calls,
//     intent routing, and conversation appends
//
// A nil *Metrics is valid and records nothing, so services can be
// constructed in tests without a registry.
package observability
