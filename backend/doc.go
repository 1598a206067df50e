// Package backend is the HTTP client for the external auth and verification API.
//
// # Architecture boundaries
//
// Client is the only component that performs network I/O against the backend.
// It maps transport failures to [ErrTransport], undecodable bodies to
// [ErrMalformedResponse], and returns decoded business responses (including
// status=false ones) to the caller unchanged. Interpreting those responses is
// the job of the flows.
//
// # What this package must NOT do
//
//   - Retry requests.
//   - Import goOnboard, flows, or session.
//   - Log passwords, OTP codes, session tokens, or image bytes.
package backend
