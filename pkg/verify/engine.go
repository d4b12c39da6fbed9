package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/certledger-online/certify-sdk-go/pkg/ledger"
	"github.com/certledger-online/certify-sdk-go/pkg/merkle"
	"github.com/certledger-online/certify-sdk-go/pkg/mirror"
	"github.com/certledger-online/certify-sdk-go/pkg/payload"
	"github.com/certledger-online/certify-sdk-go/pkg/store"
)

// ErrProofMismatch reports that a persisted Merkle proof no longer
// verifies against its batch root. This signals store corruption or
// tampering and is never folded into a plain "invalid" verdict.
var ErrProofMismatch = errors.New("merkle proof does not match committed root")

// Mode identifies which input shape produced a verdict.
type Mode string

const (
	ModePayload           Mode = "payload"
	ModeCertificateNumber Mode = "certificate_number"
	ModeLink              Mode = "link"
)

// Input is exactly one of the three accepted input shapes.
type Input struct {
	// Payload is a decrypted verification payload, as embedded in a
	// rendered certificate.
	Payload map[string]string

	// CertificateNumber is a bare identifier typed in by a verifier.
	CertificateNumber string

	// Link is a full encrypted verification URL.
	Link string
}

// Verdict is the outcome of a verification.
type Verdict struct {
	Valid              bool
	Mode               Mode
	CertificateNumber  string
	Reason             string
	TransactionRef     string
	ConsensusTimestamp string

	// Details carries the disclosed certificate fields. It stays
	// empty when the certificate is absent from the ledger.
	Details map[string]string
}

// Config configures an Engine.
type Config struct {
	Reader ledger.Reader
	Store  store.RecordStore
	Codec  *payload.Codec

	// Mirror, when set, enriches verdicts with consensus metadata.
	Mirror *mirror.Client
}

// Engine verifies certificates against ledger and store state.
type Engine struct {
	reader ledger.Reader
	store  store.RecordStore
	codec  *payload.Codec
	mirror *mirror.Client
}

// NewEngine creates a new Engine.
func NewEngine(config Config) (*Engine, error) {
	if config.Reader == nil {
		return nil, fmt.Errorf("ledger reader is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if config.Codec == nil {
		return nil, fmt.Errorf("payload codec is required")
	}
	return &Engine{
		reader: config.Reader,
		store:  config.Store,
		codec:  config.Codec,
		mirror: config.Mirror,
	}, nil
}

// Verify dispatches on the populated input shape. Exactly one of the
// three fields must be set.
func (e *Engine) Verify(ctx context.Context, input Input) (Verdict, error) {
	populated := 0
	if len(input.Payload) > 0 {
		populated++
	}
	if strings.TrimSpace(input.CertificateNumber) != "" {
		populated++
	}
	if strings.TrimSpace(input.Link) != "" {
		populated++
	}
	if populated != 1 {
		return Verdict{}, fmt.Errorf("exactly one input is required, got %d", populated)
	}

	switch {
	case len(input.Payload) > 0:
		return e.verifyPayload(input.Payload, ModePayload)
	case strings.TrimSpace(input.CertificateNumber) != "":
		return e.verifyCertificateNumber(ctx, strings.TrimSpace(input.CertificateNumber))
	default:
		return e.verifyLink(strings.TrimSpace(input.Link))
	}
}

// verifyPayload trusts the authenticated payload contents: a payload
// that decrypted under the right key and carries a ledger reference
// describes an anchored certificate.
func (e *Engine) verifyPayload(fields map[string]string, mode Mode) (Verdict, error) {
	verdict := Verdict{
		Mode:              mode,
		CertificateNumber: fields["certificate_number"],
		TransactionRef:    fields["transaction_ref"],
		Details:           fields,
	}
	if strings.TrimSpace(fields["transaction_ref"]) == "" {
		verdict.Details = nil
		verdict.Reason = "payload carries no ledger reference"
		return verdict, nil
	}
	verdict.Valid = true
	return verdict, nil
}

func (e *Engine) verifyLink(link string) (Verdict, error) {
	encrypted, err := payload.ParseVerificationURL(link)
	if err != nil {
		return Verdict{}, err
	}
	fields, err := e.codec.Decrypt(encrypted.Ciphertext, encrypted.IV)
	if err != nil {
		return Verdict{}, err
	}
	return e.verifyPayload(fields, ModeLink)
}

func (e *Engine) verifyCertificateNumber(ctx context.Context, certificateNumber string) (Verdict, error) {
	verdict := Verdict{
		Mode:              ModeCertificateNumber,
		CertificateNumber: certificateNumber,
	}

	exists, err := e.reader.CertificateExists(ctx, certificateNumber)
	if err != nil {
		return Verdict{}, fmt.Errorf("querying ledger existence: %w", err)
	}
	if !exists {
		// Nothing beyond the echoed identifier is disclosed for
		// unanchored numbers.
		verdict.Reason = "no ledger commitment for this certificate number"
		return verdict, nil
	}

	record, err := e.store.FindCertificate(ctx, certificateNumber)
	switch {
	case err == nil:
		return e.concludeSingle(ctx, verdict, record)
	case errors.Is(err, store.ErrNotFound):
		return e.concludeLeaf(ctx, verdict, certificateNumber)
	default:
		return Verdict{}, fmt.Errorf("looking up certificate record: %w", err)
	}
}

func (e *Engine) concludeSingle(ctx context.Context, verdict Verdict, record store.CertificateRecord) (Verdict, error) {
	valid, err := e.reader.CertificateValid(ctx, record.CertificateNumber)
	if err != nil {
		return Verdict{}, fmt.Errorf("querying ledger validity: %w", err)
	}
	if !valid {
		verdict.Reason = "certificate was invalidated on the ledger"
		return verdict, nil
	}

	verdict.Valid = true
	verdict.TransactionRef = record.TransactionRef
	verdict.Details = map[string]string{
		"certificate_number": record.CertificateNumber,
		"name":               record.Name,
		"course_name":        record.CourseName,
		"grant_date":         record.GrantDate,
		"expiration_date":    record.ExpirationDate,
		"issuer_id":          record.IssuerID,
		"content_hash":       record.ContentHash,
	}
	e.enrich(ctx, &verdict)
	return verdict, nil
}

func (e *Engine) concludeLeaf(ctx context.Context, verdict Verdict, certificateNumber string) (Verdict, error) {
	leaf, err := e.store.FindLeaf(ctx, certificateNumber)
	if errors.Is(err, store.ErrNotFound) {
		verdict.Reason = "ledger commitment exists but no issuance record is held"
		return verdict, nil
	}
	if err != nil {
		return Verdict{}, fmt.Errorf("looking up batch leaf: %w", err)
	}

	commitment, err := e.store.FindBatch(ctx, leaf.BatchID)
	if err != nil {
		return Verdict{}, fmt.Errorf("looking up batch commitment %d: %w", leaf.BatchID, err)
	}

	ok, err := merkle.VerifyProof(leaf.ContentHash, leaf.LeafIndex, leaf.Proof, commitment.Root)
	if err != nil {
		return Verdict{}, fmt.Errorf("re-verifying inclusion proof: %w", err)
	}
	if !ok {
		return Verdict{}, fmt.Errorf("%w: certificate %s, batch %d",
			ErrProofMismatch, certificateNumber, leaf.BatchID)
	}

	verdict.Valid = true
	verdict.TransactionRef = commitment.TransactionRef
	verdict.Details = map[string]string{
		"certificate_number": certificateNumber,
		"content_hash":       leaf.ContentHash,
		"batch_id":           fmt.Sprintf("%d", leaf.BatchID),
		"leaf_index":         fmt.Sprintf("%d", leaf.LeafIndex),
		"merkle_root":        commitment.Root,
		"proof_digest":       leaf.ProofDigest,
	}
	e.enrich(ctx, &verdict)
	return verdict, nil
}

// enrich attaches mirror-node consensus metadata when a mirror client
// is configured. Enrichment failures never flip a verdict.
func (e *Engine) enrich(ctx context.Context, verdict *Verdict) {
	if e.mirror == nil || verdict.TransactionRef == "" {
		return
	}
	transaction, err := e.mirror.GetTransaction(ctx, verdict.TransactionRef)
	if err != nil || transaction == nil {
		return
	}
	verdict.ConsensusTimestamp = transaction.ConsensusTimestamp
}
