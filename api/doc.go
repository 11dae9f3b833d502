/*
Package api holds the HTTP surface shared by the badge registry and the
oracles: request and response types, caller authentication and the mapping
between domain errors and HTTP statuses.

Subpackages:

 1. badgehandler - registry routes
 2. oraclehandler - oracle and judger routes
 3. server - HTTP server lifecycle, health and drain endpoints
 4. clients - remote stubs for the registry and for submittable oracles

# Caller Authentication

Calls that act on behalf of an account carry three headers:

	X-Caller-Timestamp: unix seconds
	X-Caller-Nonce:     unique per request
	X-Caller-Signature: 0x-prefixed hex secp256k1 signature (65 bytes)

The signature covers keccak256 of CallerMessage(method, path, timestamp,
nonce, body). The account of the recovered key is the caller. Timestamps
further than MaxClockSkew from the server clock are rejected with 401, and so
is a message already accepted inside that window. Bodies above 1 MiB are
rejected with 413.

# Errors

Failures are returned as JSON

	{"code": "RunOutOfCode", "error": "badge has no unissued codes"}

with a status derived from the error kind (see StatusFor). Clients resolve
the code back to the sentinel error with DecodeError.
*/
package api
