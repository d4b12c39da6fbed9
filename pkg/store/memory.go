package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory RecordStore, suitable for tests
// and single-process deployments.
type MemoryStore struct {
	mutex        sync.RWMutex
	certificates map[string]CertificateRecord
	batches      map[uint64]BatchCommitment
	leaves       map[string]LeafRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		certificates: make(map[string]CertificateRecord),
		batches:      make(map[uint64]BatchCommitment),
		leaves:       make(map[string]LeafRecord),
	}
}

// InsertCertificate persists a single-issue record, enforcing
// certificate-number uniqueness across both record sets.
func (s *MemoryStore) InsertCertificate(ctx context.Context, record CertificateRecord) error {
	_ = ctx

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.numberExistsLocked(record.CertificateNumber) {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, record.CertificateNumber)
	}

	s.certificates[record.CertificateNumber] = record
	return nil
}

// FindCertificate returns the single-issue record for a certificate number.
func (s *MemoryStore) FindCertificate(ctx context.Context, certificateNumber string) (CertificateRecord, error) {
	_ = ctx

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.certificates[certificateNumber]
	if !ok {
		return CertificateRecord{}, fmt.Errorf("%w: %s", ErrNotFound, certificateNumber)
	}
	return record, nil
}

// InsertBatch persists a batch commitment and its leaves atomically: either
// every leaf is accepted or nothing is written.
func (s *MemoryStore) InsertBatch(ctx context.Context, commitment BatchCommitment, leaves []LeafRecord) error {
	_ = ctx

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.batches[commitment.BatchID]; exists {
		return fmt.Errorf("%w: batch %d", ErrDuplicateKey, commitment.BatchID)
	}

	pending := make(map[string]struct{}, len(leaves))
	for _, leaf := range leaves {
		if s.numberExistsLocked(leaf.CertificateNumber) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, leaf.CertificateNumber)
		}
		if _, duplicate := pending[leaf.CertificateNumber]; duplicate {
			return fmt.Errorf("%w: %s repeated within batch", ErrDuplicateKey, leaf.CertificateNumber)
		}
		pending[leaf.CertificateNumber] = struct{}{}
	}

	s.batches[commitment.BatchID] = commitment
	for _, leaf := range leaves {
		s.leaves[leaf.CertificateNumber] = leaf
	}
	return nil
}

// FindBatch returns the commitment for a batch ID.
func (s *MemoryStore) FindBatch(ctx context.Context, batchID uint64) (BatchCommitment, error) {
	_ = ctx

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	commitment, ok := s.batches[batchID]
	if !ok {
		return BatchCommitment{}, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	return commitment, nil
}

// FindLeaf returns the batch leaf for a certificate number.
func (s *MemoryStore) FindLeaf(ctx context.Context, certificateNumber string) (LeafRecord, error) {
	_ = ctx

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	leaf, ok := s.leaves[certificateNumber]
	if !ok {
		return LeafRecord{}, fmt.Errorf("%w: %s", ErrNotFound, certificateNumber)
	}
	return leaf, nil
}

func (s *MemoryStore) numberExistsLocked(certificateNumber string) bool {
	if _, exists := s.certificates[certificateNumber]; exists {
		return true
	}
	_, exists := s.leaves[certificateNumber]
	return exists
}
