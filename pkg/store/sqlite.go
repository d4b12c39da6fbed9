package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS certificates (
	certificate_number TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	course_name        TEXT NOT NULL,
	grant_date         TEXT NOT NULL,
	expiration_date    TEXT NOT NULL,
	issuer_id          TEXT NOT NULL,
	content_hash       TEXT NOT NULL,
	transaction_ref    TEXT NOT NULL,
	issued_at          TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS batches (
	batch_id        INTEGER PRIMARY KEY,
	root            TEXT NOT NULL,
	leaf_count      INTEGER NOT NULL,
	transaction_ref TEXT NOT NULL,
	committed_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS batch_leaves (
	certificate_number TEXT PRIMARY KEY,
	batch_id           INTEGER NOT NULL,
	leaf_index         INTEGER NOT NULL,
	content_hash       TEXT NOT NULL,
	proof              TEXT NOT NULL,
	proof_digest       TEXT NOT NULL
);`

// SQLiteStore is a RecordStore backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite-backed store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A plain :memory: database exists per connection; pin the pool so the
	// schema and the data share one.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertCertificate persists a single-issue record, enforcing
// certificate-number uniqueness across both record sets.
func (s *SQLiteStore) InsertCertificate(ctx context.Context, record CertificateRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM batch_leaves WHERE certificate_number = ?`,
		record.CertificateNumber,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, record.CertificateNumber)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO certificates (
			certificate_number, name, course_name, grant_date, expiration_date,
			issuer_id, content_hash, transaction_ref, issued_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.CertificateNumber,
		record.Name,
		record.CourseName,
		record.GrantDate,
		record.ExpirationDate,
		record.IssuerID,
		record.ContentHash,
		record.TransactionRef,
		record.IssuedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return translateSQLiteError(err, record.CertificateNumber)
	}

	return tx.Commit()
}

// FindCertificate returns the single-issue record for a certificate number.
func (s *SQLiteStore) FindCertificate(ctx context.Context, certificateNumber string) (CertificateRecord, error) {
	var record CertificateRecord
	var issuedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT certificate_number, name, course_name, grant_date, expiration_date,
			issuer_id, content_hash, transaction_ref, issued_at
		 FROM certificates WHERE certificate_number = ?`,
		certificateNumber,
	).Scan(
		&record.CertificateNumber,
		&record.Name,
		&record.CourseName,
		&record.GrantDate,
		&record.ExpirationDate,
		&record.IssuerID,
		&record.ContentHash,
		&record.TransactionRef,
		&issuedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return CertificateRecord{}, fmt.Errorf("%w: %s", ErrNotFound, certificateNumber)
	}
	if err != nil {
		return CertificateRecord{}, err
	}

	record.IssuedAt, err = time.Parse(time.RFC3339Nano, issuedAt)
	if err != nil {
		return CertificateRecord{}, fmt.Errorf("stored issued_at is malformed: %w", err)
	}
	return record, nil
}

// InsertBatch persists a batch commitment and its leaves in one
// transaction.
func (s *SQLiteStore) InsertBatch(ctx context.Context, commitment BatchCommitment, leaves []LeafRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (batch_id, root, leaf_count, transaction_ref, committed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		commitment.BatchID,
		commitment.Root,
		commitment.LeafCount,
		commitment.TransactionRef,
		commitment.CommittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return translateSQLiteError(err, fmt.Sprintf("batch %d", commitment.BatchID))
	}

	for _, leaf := range leaves {
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM certificates WHERE certificate_number = ?`,
			leaf.CertificateNumber,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, leaf.CertificateNumber)
		}

		proof, err := json.Marshal(leaf.Proof)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO batch_leaves (
				certificate_number, batch_id, leaf_index, content_hash, proof, proof_digest
			) VALUES (?, ?, ?, ?, ?, ?)`,
			leaf.CertificateNumber,
			leaf.BatchID,
			leaf.LeafIndex,
			leaf.ContentHash,
			string(proof),
			leaf.ProofDigest,
		)
		if err != nil {
			return translateSQLiteError(err, leaf.CertificateNumber)
		}
	}

	return tx.Commit()
}

// FindBatch returns the commitment for a batch ID.
func (s *SQLiteStore) FindBatch(ctx context.Context, batchID uint64) (BatchCommitment, error) {
	var commitment BatchCommitment
	var committedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT batch_id, root, leaf_count, transaction_ref, committed_at
		 FROM batches WHERE batch_id = ?`,
		batchID,
	).Scan(
		&commitment.BatchID,
		&commitment.Root,
		&commitment.LeafCount,
		&commitment.TransactionRef,
		&committedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return BatchCommitment{}, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	if err != nil {
		return BatchCommitment{}, err
	}

	commitment.CommittedAt, err = time.Parse(time.RFC3339Nano, committedAt)
	if err != nil {
		return BatchCommitment{}, fmt.Errorf("stored committed_at is malformed: %w", err)
	}
	return commitment, nil
}

// FindLeaf returns the batch leaf for a certificate number.
func (s *SQLiteStore) FindLeaf(ctx context.Context, certificateNumber string) (LeafRecord, error) {
	var leaf LeafRecord
	var proof string

	err := s.db.QueryRowContext(ctx,
		`SELECT certificate_number, batch_id, leaf_index, content_hash, proof, proof_digest
		 FROM batch_leaves WHERE certificate_number = ?`,
		certificateNumber,
	).Scan(
		&leaf.CertificateNumber,
		&leaf.BatchID,
		&leaf.LeafIndex,
		&leaf.ContentHash,
		&proof,
		&leaf.ProofDigest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return LeafRecord{}, fmt.Errorf("%w: %s", ErrNotFound, certificateNumber)
	}
	if err != nil {
		return LeafRecord{}, err
	}

	if err := json.Unmarshal([]byte(proof), &leaf.Proof); err != nil {
		return LeafRecord{}, fmt.Errorf("stored proof is malformed: %w", err)
	}
	return leaf, nil
}

func translateSQLiteError(err error, key string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	return err
}
