// Package flows contains the interactive wizards behind every Account
// operation: sign-in with an optional second factor, password recovery over an
// emailed code, and KYC document/selfie capture.
//
// Each wizard is an explicit state machine (an enum of states plus a transition
// table) that receives its backend calls, metrics and audit hooks through a
// typed dependency struct. Results are returned as typed values; there are no
// loose "submitting" flags.
//
// # Architecture boundaries
//
// Wizards validate input, call the backend through their deps, and update the
// session.Store they were constructed with. They do NOT own the backend client,
// the metrics registry, or the audit dispatcher. Ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Import goOnboard (to avoid import cycles).
//   - Perform network I/O directly. All calls go through dependency funcs.
//   - Retry a failed call. Every retry is user-initiated.
package flows
