// Package jwt signs and verifies the visitor token carried in the site cookie.
// The token only names an anonymous visitor; it never carries backend
// credentials.
package jwt
