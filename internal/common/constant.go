// Package common contains shared constants and sentinel errors used across
// IPO Tracker components.
package common

// AuthorizationHeaderName is the HTTP header used to carry the session token
// on requests to protected endpoints.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix of the Authorization header value.
const BearerPrefix = "Bearer "
