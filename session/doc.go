// Package session holds the signed-in identity for one account scope and persists
// it to a durable [storage.KV] slot using a compact binary encoding.
//
// # Binary encoding
//
// Sessions are stored as a versioned binary blob (see [Encode]). A blob that
// fails to decode is treated as "no session": [Store.Hydrate] deletes it and
// reports a logged-out state instead of an error.
//
// # Architecture boundaries
//
// This package owns the [Store] lifecycle (hydrate once, login, update, logout)
// and the [Session] model. It does NOT talk to the auth backend and does NOT
// decide navigation; flows do.
//
// # What this package must NOT do
//
//   - Import goOnboard, backend, or flows (no upward imports).
//   - Return decode failures from Hydrate.
//   - Hold more than one Session per Store.
package session
