// Package storage provides the durable key/value slot used to persist the
// signed-in session between process restarts.
//
// # Architecture boundaries
//
// This package owns the [KV] contract and its backends ([RedisKV], [SQLKV],
// [MemoryKV]). It stores opaque byte values and does NOT interpret them; encoding
// belongs to the session package.
//
// # What this package must NOT do
//
//   - Import goOnboard or session (no upward imports).
//   - Retry failed operations. Callers decide whether a failure is fatal.
package storage
