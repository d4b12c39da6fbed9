package issuer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/certledger-online/certify-sdk-go/pkg/ledger"
	"github.com/certledger-online/certify-sdk-go/pkg/merkle"
	"github.com/certledger-online/certify-sdk-go/pkg/payload"
	"github.com/certledger-online/certify-sdk-go/pkg/store"
)

// OutcomeResolver resolves the final status of a transaction whose
// confirmation wait was interrupted. A mirror-node client satisfies
// it.
type OutcomeResolver interface {
	TransactionSucceeded(ctx context.Context, transactionID string) (succeeded bool, known bool, err error)
}

// Config configures a Client.
type Config struct {
	// IssuerID is the operator account issuing certificates, recorded
	// on every certificate and checked against the contract's
	// authorization list.
	IssuerID string

	Ledger ledger.Service
	Store  store.RecordStore
	Codec  *payload.Codec

	// VerificationBaseURL, when set, is used to build shareable
	// verification links.
	VerificationBaseURL string

	// MaxRetries bounds transient re-submissions per issuance. Zero
	// means no retries.
	MaxRetries int

	// RetryDelay overrides the fixed inter-attempt delay.
	RetryDelay time.Duration

	// Resolver, when set, settles ambiguous submission outcomes by
	// re-querying the transaction's final status.
	Resolver OutcomeResolver

	Log *logrus.Logger
}

// Client issues certificates against the registry contract.
type Client struct {
	issuerID            string
	service             ledger.Service
	manager             *ledger.Manager
	store               store.RecordStore
	codec               *payload.Codec
	verificationBaseURL string
	maxRetries          int
	retryDelay          time.Duration
	resolver            OutcomeResolver
	log                 *logrus.Logger
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	issuerID := strings.TrimSpace(config.IssuerID)
	if issuerID == "" {
		return nil, fmt.Errorf("issuer ID is required")
	}
	if config.Ledger == nil {
		return nil, fmt.Errorf("ledger service is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if config.Codec == nil {
		return nil, fmt.Errorf("payload codec is required")
	}

	log := config.Log
	if log == nil {
		log = logrus.New()
	}
	manager, err := ledger.NewManager(config.Ledger, log)
	if err != nil {
		return nil, err
	}

	return &Client{
		issuerID:            issuerID,
		service:             config.Ledger,
		manager:             manager,
		store:               config.Store,
		codec:               config.Codec,
		verificationBaseURL: strings.TrimSpace(config.VerificationBaseURL),
		maxRetries:          config.MaxRetries,
		retryDelay:          config.RetryDelay,
		resolver:            config.Resolver,
		log:                 log,
	}, nil
}

// IssueCertificate anchors one certificate on the ledger, persists its
// record, and returns the encrypted verification payload.
func (c *Client) IssueCertificate(ctx context.Context, details CertificateDetails) (IssuedCertificate, error) {
	if err := ValidateDetails(details); err != nil {
		return IssuedCertificate{}, err
	}

	requestID := uuid.Must(uuid.NewV4()).String()
	entry := c.log.WithFields(logrus.Fields{
		"request_id":         requestID,
		"certificate_number": details.CertificateNumber,
	})

	if err := c.checkIssuable(ctx); err != nil {
		return IssuedCertificate{}, err
	}
	if err := c.checkNumberFree(ctx, details.CertificateNumber); err != nil {
		return IssuedCertificate{}, err
	}

	contentHash, err := ContentHash(details)
	if err != nil {
		return IssuedCertificate{}, err
	}

	args := ledger.NewCallArguments().
		AddString(details.CertificateNumber).
		AddString(contentHash)
	ref, err := c.manager.SubmitAndConfirm(ctx, ledger.MethodIssueCertificate, args, ledger.SubmitOptions{
		CertificateNumber: details.CertificateNumber,
		MaxRetries:        c.maxRetries,
		RetryDelay:        c.retryDelay,
		Memo:              "certify:issue:" + requestID,
	})
	if err != nil {
		if ledger.IsDuplicate(err) {
			return IssuedCertificate{}, fmt.Errorf("%w: %v", ErrDuplicateCertificate, err)
		}
		if errors.Is(err, ledger.ErrOutcomeUnknown) && c.resolveOutcome(ctx, ref) {
			entry.WithField("transaction_ref", ref.String()).
				Info("ambiguous outcome resolved as confirmed")
		} else {
			return IssuedCertificate{}, err
		}
	}

	record := store.CertificateRecord{
		CertificateNumber: details.CertificateNumber,
		Name:              details.Name,
		CourseName:        details.CourseName,
		GrantDate:         details.GrantDate,
		ExpirationDate:    details.ExpirationDate,
		IssuerID:          c.issuerID,
		ContentHash:       contentHash,
		TransactionRef:    ref.String(),
		IssuedAt:          time.Now().UTC(),
	}
	if err := c.store.InsertCertificate(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return IssuedCertificate{}, fmt.Errorf("%w: %v", ErrDuplicateCertificate, err)
		}
		return IssuedCertificate{}, fmt.Errorf("persisting certificate record: %w", err)
	}

	issued, err := c.packageCertificate(record)
	if err != nil {
		return IssuedCertificate{}, err
	}

	entry.WithField("transaction_ref", ref.String()).Info("certificate issued")
	return issued, nil
}

// IssueBatch anchors a batch of certificates under one Merkle root
// commitment and returns per-leaf proofs and payloads.
func (c *Client) IssueBatch(ctx context.Context, batch []CertificateDetails) (IssuedBatch, error) {
	if len(batch) == 0 {
		return IssuedBatch{}, fmt.Errorf("batch must contain at least one certificate")
	}

	seen := make(map[string]struct{}, len(batch))
	for _, details := range batch {
		if err := ValidateDetails(details); err != nil {
			return IssuedBatch{}, err
		}
		if _, duplicate := seen[details.CertificateNumber]; duplicate {
			return IssuedBatch{}, fmt.Errorf("%w: %s appears twice in the batch",
				ErrDuplicateCertificate, details.CertificateNumber)
		}
		seen[details.CertificateNumber] = struct{}{}
	}

	requestID := uuid.Must(uuid.NewV4()).String()
	entry := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"batch_size": len(batch),
	})

	if err := c.checkIssuable(ctx); err != nil {
		return IssuedBatch{}, err
	}
	for _, details := range batch {
		if err := c.checkNumberFree(ctx, details.CertificateNumber); err != nil {
			return IssuedBatch{}, err
		}
	}

	leafDigests := make([]string, len(batch))
	for i, details := range batch {
		contentHash, err := ContentHash(details)
		if err != nil {
			return IssuedBatch{}, err
		}
		leafDigests[i] = contentHash
	}

	tree, err := merkle.Build(leafDigests)
	if err != nil {
		return IssuedBatch{}, err
	}

	batchCount, err := c.service.BatchCount(ctx)
	if err != nil {
		return IssuedBatch{}, fmt.Errorf("querying batch count: %w", err)
	}
	batchID := batchCount + 1

	// The contract indexes every leaf number, so number-mode lookups
	// and future pre-checks see batch-issued certificates too.
	numbers := make([]string, len(batch))
	for i, details := range batch {
		numbers[i] = details.CertificateNumber
	}
	args := ledger.NewCallArguments().
		AddUint64(batchID).
		AddString(tree.Root).
		AddStringArray(numbers).
		AddStringArray(leafDigests)
	ref, err := c.manager.SubmitAndConfirm(ctx, ledger.MethodCommitBatch, args, ledger.SubmitOptions{
		MaxRetries: c.maxRetries,
		RetryDelay: c.retryDelay,
		Memo:       "certify:batch:" + requestID,
	})
	if err != nil {
		if ledger.IsDuplicate(err) {
			return IssuedBatch{}, fmt.Errorf("%w: %v", ErrDuplicateCertificate, err)
		}
		if errors.Is(err, ledger.ErrOutcomeUnknown) && c.resolveOutcome(ctx, ref) {
			entry.WithField("transaction_ref", ref.String()).
				Info("ambiguous outcome resolved as confirmed")
		} else {
			return IssuedBatch{}, err
		}
	}

	commitment := store.BatchCommitment{
		BatchID:        batchID,
		Root:           tree.Root,
		LeafCount:      len(batch),
		TransactionRef: ref.String(),
		CommittedAt:    time.Now().UTC(),
	}
	leaves := make([]store.LeafRecord, len(batch))
	for i, details := range batch {
		leaves[i] = store.LeafRecord{
			BatchID:           batchID,
			LeafIndex:         i,
			CertificateNumber: details.CertificateNumber,
			ContentHash:       leafDigests[i],
			Proof:             tree.Leaves[i].Proof,
			ProofDigest:       tree.Leaves[i].ProofDigest,
		}
	}
	if err := c.store.InsertBatch(ctx, commitment, leaves); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return IssuedBatch{}, fmt.Errorf("%w: %v", ErrDuplicateCertificate, err)
		}
		return IssuedBatch{}, fmt.Errorf("persisting batch commitment: %w", err)
	}

	certificates := make([]IssuedCertificate, len(batch))
	for i, details := range batch {
		issued, err := c.packageLeaf(details, leaves[i], commitment)
		if err != nil {
			return IssuedBatch{}, err
		}
		certificates[i] = issued
	}

	entry.WithFields(logrus.Fields{
		"batch_id":        batchID,
		"merkle_root":     tree.Root,
		"transaction_ref": ref.String(),
	}).Info("batch committed")

	return IssuedBatch{Commitment: commitment, Leaves: leaves, Certificates: certificates}, nil
}

func (c *Client) checkIssuable(ctx context.Context) error {
	paused, err := c.service.Paused(ctx)
	if err != nil {
		return fmt.Errorf("querying pause state: %w", err)
	}
	if paused {
		return ErrIssuancePaused
	}

	authorized, err := c.service.AuthorizedIssuer(ctx, c.issuerID)
	if err != nil {
		return fmt.Errorf("querying issuer authorization: %w", err)
	}
	if !authorized {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, c.issuerID)
	}
	return nil
}

// checkNumberFree rejects certificate numbers already present in the
// local store or already committed on the ledger. For single issuance
// the manager re-validates against the ledger again immediately before
// the write; for batch issuance this is the ledger-side pre-check.
func (c *Client) checkNumberFree(ctx context.Context, certificateNumber string) error {
	if _, err := c.store.FindCertificate(ctx, certificateNumber); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateCertificate, certificateNumber)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking certificate number: %w", err)
	}
	if _, err := c.store.FindLeaf(ctx, certificateNumber); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateCertificate, certificateNumber)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking certificate number: %w", err)
	}

	exists, err := c.service.CertificateExists(ctx, certificateNumber)
	if err != nil {
		return fmt.Errorf("querying ledger existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCertificate, certificateNumber)
	}
	return nil
}

// resolveOutcome settles an ambiguous submission through the
// configured resolver. True means the transaction is known to have
// reached consensus successfully.
func (c *Client) resolveOutcome(ctx context.Context, ref ledger.TransactionRef) bool {
	if c.resolver == nil || ref == "" {
		return false
	}
	succeeded, known, err := c.resolver.TransactionSucceeded(ctx, ref.String())
	if err != nil || !known {
		return false
	}
	return succeeded
}

func (c *Client) packageCertificate(record store.CertificateRecord) (IssuedCertificate, error) {
	fields := map[string]string{
		"certificate_number": record.CertificateNumber,
		"name":               record.Name,
		"course_name":        record.CourseName,
		"grant_date":         record.GrantDate,
		"expiration_date":    record.ExpirationDate,
		"issuer_id":          record.IssuerID,
		"content_hash":       record.ContentHash,
		"transaction_ref":    record.TransactionRef,
	}
	encrypted, err := c.codec.Encrypt(fields)
	if err != nil {
		return IssuedCertificate{}, fmt.Errorf("encrypting verification payload: %w", err)
	}

	issued := IssuedCertificate{Record: record, Payload: encrypted}
	if c.verificationBaseURL != "" {
		link, err := payload.BuildVerificationURL(c.verificationBaseURL, encrypted)
		if err != nil {
			return IssuedCertificate{}, err
		}
		issued.VerificationURL = link
	}
	return issued, nil
}

func (c *Client) packageLeaf(details CertificateDetails, leaf store.LeafRecord, commitment store.BatchCommitment) (IssuedCertificate, error) {
	record := store.CertificateRecord{
		CertificateNumber: details.CertificateNumber,
		Name:              details.Name,
		CourseName:        details.CourseName,
		GrantDate:         details.GrantDate,
		ExpirationDate:    details.ExpirationDate,
		IssuerID:          c.issuerID,
		ContentHash:       leaf.ContentHash,
		TransactionRef:    commitment.TransactionRef,
		IssuedAt:          commitment.CommittedAt,
	}

	fields := map[string]string{
		"certificate_number": record.CertificateNumber,
		"name":               record.Name,
		"course_name":        record.CourseName,
		"grant_date":         record.GrantDate,
		"expiration_date":    record.ExpirationDate,
		"issuer_id":          record.IssuerID,
		"content_hash":       record.ContentHash,
		"transaction_ref":    record.TransactionRef,
		"batch_id":           fmt.Sprintf("%d", commitment.BatchID),
		"leaf_index":         fmt.Sprintf("%d", leaf.LeafIndex),
		"merkle_root":        commitment.Root,
		"proof_digest":       leaf.ProofDigest,
	}
	encrypted, err := c.codec.Encrypt(fields)
	if err != nil {
		return IssuedCertificate{}, fmt.Errorf("encrypting verification payload: %w", err)
	}

	issued := IssuedCertificate{Record: record, Payload: encrypted}
	if c.verificationBaseURL != "" {
		link, err := payload.BuildVerificationURL(c.verificationBaseURL, encrypted)
		if err != nil {
			return IssuedCertificate{}, err
		}
		issued.VerificationURL = link
	}
	return issued, nil
}
