// Package cryptoutils provides the secp256k1 signing primitives used by the
// attestation layer and by HTTP caller authentication.
//
// Signatures are produced over keccak256 of the message and are 65 bytes long
// ([R || S || V]). Verification ignores the recovery byte and accepts both
// compressed (33-byte) and uncompressed (65-byte) public keys.
//
// # Key Functions
//
//   - PublicKeyOf - compressed public key of a raw private key
//   - Sign / Verify - message signatures
//   - AccountIDFromPubkey - account identifier of a public key
//   - RecoverAccount - account identifier of the key that signed a message
package cryptoutils
