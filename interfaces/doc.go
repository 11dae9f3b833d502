// Package interfaces defines the shared types, capability interfaces and
// error taxonomy of the badge oracle system.
//
// # Types
//
// AccountID: 32-byte account identifier. For secp256k1 keys held by this
// system it is keccak256 of the uncompressed public key (without the 0x04
// prefix byte).
//
// ContractLocator: names a deployed component, either in-process
// ("local:<name>") or remote (an http(s) base URL).
//
// # Capabilities
//
// KeyDeriver derives per-salt private keys, Fetcher retrieves external
// evidence, Issuable grants a badge code to an account and IssuableFactory
// resolves a ContractLocator into an Issuable handle.
//
// # Errors
//
// Every domain error is an *Error sentinel carrying a Kind and a stable Code.
// The Code travels over the wire and ErrorFromCode resolves it back to the
// sentinel on the client side.
package interfaces
