// Package kms provides key derivation for the oracles.
//
// SimpleKMS derives secp256k1 private keys deterministically from a master
// seed and a domain-separation salt, so an oracle recreates the same
// attestation key pair across restarts without persisting the private key:
//
//	kms, err := kms.NewSimpleKMS(seed)
//	privkey, err := kms.DeriveKey([]byte("gist-attestation-key"))
//
// Custody and rotation of the master seed are left to the operator.
package kms
