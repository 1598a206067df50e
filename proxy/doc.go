// Package proxy holds the thin clients behind the site's two pass-through API
// routes: vendor creation on the vendor-onboarding platform and EIN lookup on
// the business-identity service.
//
// Input is validated before any call. Business errors from either service are
// returned verbatim as *flows.ServerError; everything else wraps
// ErrRequestFailed.
package proxy
