// Package badgehandler serves the badge registry over HTTP.
//
// Queries are public. Commands require the caller headers checked by
// api.CallerAuth; the recovered account is the caller passed to the registry.
package badgehandler
