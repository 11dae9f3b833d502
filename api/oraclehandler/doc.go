// Package oraclehandler serves the gist oracle and the judger over HTTP.
//
// Every oracle is mounted under /api/oracles/{name}. The shared routes expose
// the admin, the verifier, redemption and issuer configuration; each oracle
// adds its own attest routes.
package oraclehandler
