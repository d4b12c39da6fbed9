// Package verify answers whether a presented certificate is anchored
// on the ledger. It accepts three input shapes: a decrypted payload, a
// bare certificate number, or an encrypted verification link. Batch
// certificates are re-proven against their persisted Merkle root on
// every lookup.
package verify
