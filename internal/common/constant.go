// Package common contains shared constants and sentinel errors used across
// Data Cleaner components.
package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "
