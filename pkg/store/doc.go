// Package store defines the certificate record store contract and provides
// in-memory and SQLite-backed implementations.
//
// The store exclusively owns CertificateRecord and BatchCommitment
// persistence. Issued records are immutable: there is no update or delete,
// and corrections require a new record. Certificate numbers are unique
// across both the single-issue and batch-leaf record sets; a violating
// insert fails with ErrDuplicateKey.
package store
