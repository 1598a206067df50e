// Package internal holds the parts of goOnboard that are private to this
// module.
//
// # Sub-packages
//
//   - config: environment configuration for cmd/onboard-server (Viper)
//   - flows: the sign-in, recovery and KYC wizards behind the Engine
//   - httpjson: JSON request/response plumbing shared by API clients
//   - logging: zap logger construction
//   - server: the chi HTTP surface over Engine accounts
//
// # What this package must NOT do
//
//   - Export types that appear in the public goOnboard API.
//   - Be imported by any package outside the goOnboard module.
package internal
