// Package merkle builds batch commitments over certificate content hashes
// and verifies per-leaf inclusion proofs.
//
// The tree is a bottom-up binary SHA-256 tree over hex-encoded leaf digests.
// Adjacent nodes pair left-to-right and the parent is the digest of the
// fixed-order concatenation of the pair's raw bytes. An unpaired node at any
// level is hashed with itself (duplicate-last); the same policy applies on
// build and verify, so proofs reconstruct the root deterministically. A
// single-leaf batch has an empty proof and the leaf digest is the root
// verbatim.
//
// A proof is the ordered sequence of sibling digests from the leaf to the
// root; its proof digest is the SHA-256 of the compact JSON serialization of
// that sequence, usable as a compact lookup key.
package merkle
