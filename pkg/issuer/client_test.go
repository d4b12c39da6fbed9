package issuer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/certledger-online/certify-sdk-go/pkg/ledger"
	"github.com/certledger-online/certify-sdk-go/pkg/merkle"
	"github.com/certledger-online/certify-sdk-go/pkg/payload"
	"github.com/certledger-online/certify-sdk-go/pkg/store"
	"github.com/certledger-online/certify-sdk-go/pkg/verify"
)

// fakeLedger is an in-memory stand-in for the registry contract. Like
// the real contract, it only knows certificate numbers that were
// transmitted to it through a transaction.
type fakeLedger struct {
	committed  map[string]bool
	batchCount uint64
	paused     bool
	authorized bool

	transactErr      error
	confirmErr       error
	existsCalls      int
	transactCalls    int
	nextSequence     int
	lastCommitValues []any
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{committed: map[string]bool{}, authorized: true}
}

func (f *fakeLedger) CertificateExists(ctx context.Context, certificateNumber string) (bool, error) {
	f.existsCalls++
	return f.committed[certificateNumber], nil
}

func (f *fakeLedger) CertificateValid(ctx context.Context, certificateNumber string) (bool, error) {
	return f.committed[certificateNumber], nil
}

func (f *fakeLedger) BatchCount(ctx context.Context) (uint64, error) { return f.batchCount, nil }

func (f *fakeLedger) Paused(ctx context.Context) (bool, error) { return f.paused, nil }

func (f *fakeLedger) AuthorizedIssuer(ctx context.Context, issuerID string) (bool, error) {
	return f.authorized, nil
}

func (f *fakeLedger) Simulate(ctx context.Context, method string, args *ledger.CallArguments) error {
	return nil
}

func (f *fakeLedger) Transact(ctx context.Context, method string, args *ledger.CallArguments, memo string) (ledger.TransactionRef, error) {
	f.transactCalls++
	if f.transactErr != nil {
		return "", f.transactErr
	}
	values := args.Values()
	switch method {
	case ledger.MethodIssueCertificate:
		f.committed[values[0].(string)] = true
	case ledger.MethodCommitBatch:
		f.lastCommitValues = values
		for _, number := range values[2].([]string) {
			f.committed[number] = true
		}
		f.batchCount++
	}
	f.nextSequence++
	return ledger.TransactionRef(fmt.Sprintf("0.0.1234@1700000000.%09d", f.nextSequence)), nil
}

func (f *fakeLedger) AwaitConfirmation(ctx context.Context, ref ledger.TransactionRef) error {
	return f.confirmErr
}

func newTestClient(t *testing.T, service ledger.Service) (*Client, store.RecordStore, *payload.Codec) {
	t.Helper()

	codec, err := payload.NewCodecFromString("test-passphrase")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	recordStore := store.NewMemoryStore()
	client, err := NewClient(Config{
		IssuerID:            "0.0.1234",
		Ledger:              service,
		Store:               recordStore,
		Codec:               codec,
		VerificationBaseURL: "https://verify.example.com/check",
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		Log:                 log,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, recordStore, codec
}

func TestIssueCertificate(t *testing.T) {
	service := newFakeLedger()
	client, recordStore, codec := newTestClient(t, service)
	ctx := context.Background()

	issued, err := client.IssueCertificate(ctx, validDetails())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued.Record.TransactionRef == "" {
		t.Fatal("expected transaction reference")
	}
	wantHash, err := ContentHash(validDetails())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued.Record.ContentHash != wantHash {
		t.Fatalf("unexpected content hash: %s", issued.Record.ContentHash)
	}

	persisted, err := recordStore.FindCertificate(ctx, "CERT-001")
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if persisted.TransactionRef != issued.Record.TransactionRef {
		t.Fatalf("persisted ref mismatch: %s", persisted.TransactionRef)
	}

	fields, err := codec.Decrypt(issued.Payload.Ciphertext, issued.Payload.IV)
	if err != nil {
		t.Fatalf("payload must decrypt: %v", err)
	}
	if fields["certificate_number"] != "CERT-001" || fields["transaction_ref"] == "" {
		t.Fatalf("unexpected payload fields: %v", fields)
	}

	parsed, err := payload.ParseVerificationURL(issued.VerificationURL)
	if err != nil {
		t.Fatalf("verification URL must parse: %v", err)
	}
	if parsed.Ciphertext != issued.Payload.Ciphertext {
		t.Fatal("verification URL must carry the payload")
	}
}

func TestIssueCertificateRejectsLocalDuplicate(t *testing.T) {
	service := newFakeLedger()
	client, _, _ := newTestClient(t, service)
	ctx := context.Background()

	if _, err := client.IssueCertificate(ctx, validDetails()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := client.IssueCertificate(ctx, validDetails())
	if !errors.Is(err, ErrDuplicateCertificate) {
		t.Fatalf("expected ErrDuplicateCertificate, got %v", err)
	}
}

func TestIssueCertificateRejectsLedgerDuplicate(t *testing.T) {
	service := newFakeLedger()
	service.committed["CERT-001"] = true
	client, _, _ := newTestClient(t, service)

	_, err := client.IssueCertificate(context.Background(), validDetails())
	if !errors.Is(err, ErrDuplicateCertificate) {
		t.Fatalf("expected ErrDuplicateCertificate, got %v", err)
	}
	if service.transactCalls != 0 {
		t.Fatal("duplicate must not reach the ledger")
	}
}

func TestIssueCertificatePausedAndUnauthorized(t *testing.T) {
	service := newFakeLedger()
	service.paused = true
	client, _, _ := newTestClient(t, service)

	_, err := client.IssueCertificate(context.Background(), validDetails())
	if !errors.Is(err, ErrIssuancePaused) {
		t.Fatalf("expected ErrIssuancePaused, got %v", err)
	}

	service.paused = false
	service.authorized = false
	_, err = client.IssueCertificate(context.Background(), validDetails())
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if service.transactCalls != 0 {
		t.Fatal("blocked issuance must not reach the ledger")
	}
}

func TestIssueCertificateRetriesTransient(t *testing.T) {
	service := newFakeLedger()
	service.transactErr = errors.New("connection reset by peer")
	client, _, _ := newTestClient(t, service)

	_, err := client.IssueCertificate(context.Background(), validDetails())
	if !errors.Is(err, ledger.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if service.transactCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", service.transactCalls)
	}
}

func batchDetails(count int) []CertificateDetails {
	batch := make([]CertificateDetails, count)
	for i := range batch {
		details := validDetails()
		details.CertificateNumber = fmt.Sprintf("BATCH-%03d", i+1)
		batch[i] = details
	}
	return batch
}

func TestIssueBatch(t *testing.T) {
	service := newFakeLedger()
	service.batchCount = 4
	client, recordStore, _ := newTestClient(t, service)
	ctx := context.Background()

	result, err := client.IssueBatch(ctx, batchDetails(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Commitment.BatchID != 5 {
		t.Fatalf("batch ID must follow ledger count, got %d", result.Commitment.BatchID)
	}
	if len(result.Leaves) != 5 || len(result.Certificates) != 5 {
		t.Fatalf("unexpected result sizes: %d leaves, %d certificates",
			len(result.Leaves), len(result.Certificates))
	}

	for _, leaf := range result.Leaves {
		ok, err := merkle.VerifyProof(leaf.ContentHash, leaf.LeafIndex, leaf.Proof, result.Commitment.Root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("leaf %d proof must verify against the committed root", leaf.LeafIndex)
		}
	}

	persisted, err := recordStore.FindLeaf(ctx, "BATCH-003")
	if err != nil {
		t.Fatalf("leaf not persisted: %v", err)
	}
	if persisted.BatchID != 5 || persisted.LeafIndex != 2 {
		t.Fatalf("unexpected persisted leaf: %+v", persisted)
	}
}

func TestIssueBatchRejectsInternalDuplicate(t *testing.T) {
	service := newFakeLedger()
	client, _, _ := newTestClient(t, service)

	batch := batchDetails(3)
	batch[2].CertificateNumber = batch[0].CertificateNumber
	_, err := client.IssueBatch(context.Background(), batch)
	if !errors.Is(err, ErrDuplicateCertificate) {
		t.Fatalf("expected ErrDuplicateCertificate, got %v", err)
	}
	if service.transactCalls != 0 {
		t.Fatal("duplicate batch must not reach the ledger")
	}
}

func TestIssueBatchRejectsAlreadyIssuedNumber(t *testing.T) {
	service := newFakeLedger()
	client, _, _ := newTestClient(t, service)
	ctx := context.Background()

	details := validDetails()
	details.CertificateNumber = "BATCH-002"
	if _, err := client.IssueCertificate(ctx, details); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := client.IssueBatch(ctx, batchDetails(3))
	if !errors.Is(err, ErrDuplicateCertificate) {
		t.Fatalf("expected ErrDuplicateCertificate, got %v", err)
	}
}

func TestIssueBatchEmpty(t *testing.T) {
	service := newFakeLedger()
	client, _, _ := newTestClient(t, service)

	if _, err := client.IssueBatch(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestIssueBatchPrechecksNumbersAgainstLedger(t *testing.T) {
	service := newFakeLedger()
	service.committed["BATCH-002"] = true
	client, _, _ := newTestClient(t, service)

	_, err := client.IssueBatch(context.Background(), batchDetails(3))
	if !errors.Is(err, ErrDuplicateCertificate) {
		t.Fatalf("expected ErrDuplicateCertificate, got %v", err)
	}
	if service.transactCalls != 0 {
		t.Fatal("ledger-known number must be rejected before submission")
	}
	if service.existsCalls == 0 {
		t.Fatal("batch issuance must pre-check numbers against the ledger")
	}
}

func TestIssueBatchTransmitsLeafNumbers(t *testing.T) {
	service := newFakeLedger()
	client, _, _ := newTestClient(t, service)

	result, err := client.IssueBatch(context.Background(), batchDetails(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(service.lastCommitValues) != 4 {
		t.Fatalf("expected 4 commit arguments, got %d", len(service.lastCommitValues))
	}
	numbers, ok := service.lastCommitValues[2].([]string)
	if !ok || len(numbers) != 3 {
		t.Fatalf("commit must carry the leaf numbers, got %v", service.lastCommitValues[2])
	}
	hashes, ok := service.lastCommitValues[3].([]string)
	if !ok || len(hashes) != 3 {
		t.Fatalf("commit must carry the leaf content hashes, got %v", service.lastCommitValues[3])
	}
	for i, leaf := range result.Leaves {
		if numbers[i] != leaf.CertificateNumber {
			t.Fatalf("leaf %d: transmitted %q, persisted %q", i, numbers[i], leaf.CertificateNumber)
		}
		if hashes[i] != leaf.ContentHash {
			t.Fatalf("leaf %d: transmitted hash %q, persisted %q", i, hashes[i], leaf.ContentHash)
		}
		if !service.committed[leaf.CertificateNumber] {
			t.Fatalf("ledger must know %s after the commit", leaf.CertificateNumber)
		}
	}
}

func TestBatchCertificateVerifiableByNumber(t *testing.T) {
	service := newFakeLedger()
	client, recordStore, codec := newTestClient(t, service)
	ctx := context.Background()

	result, err := client.IssueBatch(ctx, batchDetails(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine, err := verify.NewEngine(verify.Config{
		Reader: service,
		Store:  recordStore,
		Codec:  codec,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verdict, err := engine.Verify(ctx, verify.Input{CertificateNumber: "BATCH-002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Valid {
		t.Fatalf("batch-issued certificate must verify by number: %+v", verdict)
	}
	if verdict.Details["merkle_root"] != result.Commitment.Root {
		t.Fatalf("unexpected verdict details: %+v", verdict.Details)
	}
}

type fakeResolver struct {
	succeeded bool
	known     bool
	calls     int
}

func (f *fakeResolver) TransactionSucceeded(ctx context.Context, transactionID string) (bool, bool, error) {
	f.calls++
	return f.succeeded, f.known, nil
}

func newResolverClient(t *testing.T, service ledger.Service, resolver OutcomeResolver) (*Client, store.RecordStore) {
	t.Helper()

	codec, err := payload.NewCodecFromString("test-passphrase")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	recordStore := store.NewMemoryStore()
	client, err := NewClient(Config{
		IssuerID:   "0.0.1234",
		Ledger:     service,
		Store:      recordStore,
		Codec:      codec,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Resolver:   resolver,
		Log:        log,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, recordStore
}

func TestIssueCertificateResolvesAmbiguousOutcome(t *testing.T) {
	service := newFakeLedger()
	service.confirmErr = context.Canceled
	resolver := &fakeResolver{succeeded: true, known: true}
	client, recordStore := newResolverClient(t, service, resolver)
	ctx := context.Background()

	issued, err := client.IssueCertificate(ctx, validDetails())
	if err != nil {
		t.Fatalf("expected resolver to settle the outcome, got %v", err)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}
	if _, err := recordStore.FindCertificate(ctx, issued.Record.CertificateNumber); err != nil {
		t.Fatalf("resolved issuance must be persisted: %v", err)
	}
}

func TestIssueCertificateAmbiguousOutcomeUnresolved(t *testing.T) {
	service := newFakeLedger()
	service.confirmErr = context.Canceled
	resolver := &fakeResolver{known: false}
	client, recordStore := newResolverClient(t, service, resolver)
	ctx := context.Background()

	_, err := client.IssueCertificate(ctx, validDetails())
	if !errors.Is(err, ledger.ErrOutcomeUnknown) {
		t.Fatalf("expected ErrOutcomeUnknown, got %v", err)
	}
	if _, err := recordStore.FindCertificate(ctx, "CERT-001"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unresolved issuance must not be persisted, got %v", err)
	}
}
