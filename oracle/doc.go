// Package oracle implements the attestation oracles and their redemption
// workflow.
//
// Each oracle has two paths. The query path (AttestGist, CheckContract)
// gathers external evidence and signs a claim; it mutates nothing and may be
// called by anyone. The command path (Redeem) verifies a claim, checks that
// it is bound to the caller, consumes the claimed external identity and asks
// the configured badge registry to issue a code. Consuming the identity and
// issuing commit together or not at all.
//
// GistOracle attests ownership of a GitHub gist. Judger runs a submitted
// oracle and attests that it produced an attestation its own verifier
// accepts. Directory resolves contract locators to in-process components or
// to HTTP stubs.
package oracle
