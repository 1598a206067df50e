// Package middleware exposes the HTTP adapters the onboarding server mounts in
// front of its handlers.
//
// # Adapters
//
//   - [Visitor] issues and verifies the signed visitor cookie and puts the
//     visitor ID in the request context.
//   - [AuditContext] copies the request ID and client IP into the context
//     so audit events carry them.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into context values. It does NOT
// sign in users or touch the session store; a visitor ID is only the key an
// Account is opened under.
package middleware
