// Package clients provides HTTP stubs for remote badge registries and
// submittable oracles.
//
// BadgeClient implements interfaces.Issuable against a remote registry and
// exposes the admin surface used by the CLI. OracleClient implements the
// submittable-oracle surface (Admin, Verifier, Attest) plus the gist and
// judger specific calls. Calls that act on behalf of an account are signed
// with the configured api.RequestSigner.
package clients
