// Package attestation signs typed claim payloads and verifies them on the
// other side of a trust boundary.
//
// An Attestation is the RLP encoding of a payload plus a secp256k1 signature
// over it. The Generator holding the private key never leaves the component
// that created it; the Verifier (the public key) is shared freely.
//
//	gen, verifier, err := attestation.Create(kms, []byte("gist-attestation-key"))
//	att, err := gen.Sign(GistQuote{Username: "alice", AccountID: account})
//	quote, ok := attestation.VerifyAs[GistQuote](verifier, att)
//
// VerifyAs treats a payload that does not decode as the requested type
// exactly like a bad signature.
package attestation
