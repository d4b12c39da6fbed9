package ledger

import (
	"context"
)

// Contract methods exposed by the certificate registry contract.
const (
	MethodIssueCertificate = "issueCertificate"
	MethodCommitBatch      = "commitBatch"
)

// Reader answers queries against current ledger state. Reads never
// mutate anything and are safe to repeat.
type Reader interface {
	// CertificateExists reports whether the ledger holds a commitment
	// for the certificate number.
	CertificateExists(ctx context.Context, certificateNumber string) (bool, error)

	// CertificateValid reports the contract's validity flag for the
	// certificate number.
	CertificateValid(ctx context.Context, certificateNumber string) (bool, error)

	// BatchCount returns the number of batch commitments recorded so
	// far.
	BatchCount(ctx context.Context) (uint64, error)

	// Paused reports whether the contract is currently paused.
	Paused(ctx context.Context) (bool, error)

	// AuthorizedIssuer reports whether the account may issue
	// certificates.
	AuthorizedIssuer(ctx context.Context, issuerID string) (bool, error)
}

// Writer submits state-changing calls.
type Writer interface {
	// Simulate dry-runs the call against latest state without
	// submitting a transaction. A revert surfaces as an error.
	Simulate(ctx context.Context, method string, args *CallArguments) error

	// Transact submits the call and returns its transaction
	// reference. A returned reference does not yet mean consensus.
	Transact(ctx context.Context, method string, args *CallArguments, memo string) (TransactionRef, error)

	// AwaitConfirmation blocks until the referenced transaction
	// reaches a final receipt and reports its outcome.
	AwaitConfirmation(ctx context.Context, ref TransactionRef) error
}

// Service is the full contract surface the manager and the pipelines
// depend on.
type Service interface {
	Reader
	Writer
}
