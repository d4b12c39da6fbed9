package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateKey reports an insert whose certificate number already exists
// in either the single-issue or batch-leaf record set.
var ErrDuplicateKey = errors.New("certificate number already exists")

// ErrNotFound reports a lookup for a record that was never persisted.
var ErrNotFound = errors.New("record not found")

// CertificateRecord is one issued certificate. Immutable once persisted.
type CertificateRecord struct {
	CertificateNumber string
	Name              string
	CourseName        string
	GrantDate         string
	ExpirationDate    string
	IssuerID          string
	ContentHash       string
	TransactionRef    string
	IssuedAt          time.Time
}

// BatchCommitment is the persisted Merkle commitment for one issued batch.
type BatchCommitment struct {
	BatchID        uint64
	Root           string
	LeafCount      int
	TransactionRef string
	CommittedAt    time.Time
}

// LeafRecord ties one batch-issued certificate to its commitment: content
// hash, inclusion proof, and the proof's digest as a stable external
// reference.
type LeafRecord struct {
	BatchID           uint64
	LeafIndex         int
	CertificateNumber string
	ContentHash       string
	Proof             []string
	ProofDigest       string
}

// RecordStore is the persistence contract consumed by the issuance pipeline
// and the verification engine.
type RecordStore interface {
	InsertCertificate(ctx context.Context, record CertificateRecord) error
	FindCertificate(ctx context.Context, certificateNumber string) (CertificateRecord, error)
	InsertBatch(ctx context.Context, commitment BatchCommitment, leaves []LeafRecord) error
	FindBatch(ctx context.Context, batchID uint64) (BatchCommitment, error)
	FindLeaf(ctx context.Context, certificateNumber string) (LeafRecord, error)
}
