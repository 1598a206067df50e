// Package goOnboard runs the account-access and identity-verification wizards
// of a fintech site: sign-in with an optional second factor, password recovery
// over an emailed code, and KYC document/selfie capture against an external
// verification backend.
//
// An [Engine] is built once through [Builder.Build]. Each browser or device
// gets its own [Account] from [Engine.Open], which hydrates the persisted
// session for that scope and wires fresh wizards to it. Engine methods are safe
// to call from multiple goroutines.
//
// # Architecture boundaries
//
// goOnboard is the public surface. It exposes [Engine], [Builder], [Config],
// [Account], and the wizard value types. Wizard logic lives in internal/flows,
// backend I/O in package backend, and persistence in packages session and
// storage.
//
// # What this package must NOT do
//
//   - Retry backend calls on the user's behalf.
//   - Log passwords, one-time codes, session tokens, or image bytes.
//   - Share one session.Store between two account scopes.
package goOnboard
