package ledger

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeService struct {
	existsFunc  func(ctx context.Context, certificateNumber string) (bool, error)
	simulateErr error
	transact    func(attempt int) (TransactionRef, error)
	confirm     func(attempt int) error

	existsCalls   int
	simulateCalls int
	transactCalls int
	confirmCalls  int
}

func (f *fakeService) CertificateExists(ctx context.Context, certificateNumber string) (bool, error) {
	f.existsCalls++
	if f.existsFunc != nil {
		return f.existsFunc(ctx, certificateNumber)
	}
	return false, nil
}

func (f *fakeService) CertificateValid(ctx context.Context, certificateNumber string) (bool, error) {
	return true, nil
}

func (f *fakeService) BatchCount(ctx context.Context) (uint64, error) { return 0, nil }

func (f *fakeService) Paused(ctx context.Context) (bool, error) { return false, nil }

func (f *fakeService) AuthorizedIssuer(ctx context.Context, issuerID string) (bool, error) {
	return true, nil
}

func (f *fakeService) Simulate(ctx context.Context, method string, args *CallArguments) error {
	f.simulateCalls++
	return f.simulateErr
}

func (f *fakeService) Transact(ctx context.Context, method string, args *CallArguments, memo string) (TransactionRef, error) {
	f.transactCalls++
	if f.transact != nil {
		return f.transact(f.transactCalls)
	}
	return "0.0.1234@1700000000.000000001", nil
}

func (f *fakeService) AwaitConfirmation(ctx context.Context, ref TransactionRef) error {
	f.confirmCalls++
	if f.confirm != nil {
		return f.confirm(f.confirmCalls)
	}
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestManager(t *testing.T, service Service) *Manager {
	t.Helper()
	manager, err := NewManager(service, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return manager
}

func submitOpts(certificateNumber string, maxRetries int) SubmitOptions {
	return SubmitOptions{
		CertificateNumber: certificateNumber,
		MaxRetries:        maxRetries,
		RetryDelay:        time.Millisecond,
	}
}

func TestSubmitAndConfirmHappyPath(t *testing.T) {
	service := &fakeService{}
	manager := newTestManager(t, service)

	ref, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref == "" {
		t.Fatal("expected transaction reference")
	}
	if service.existsCalls != 1 || service.simulateCalls != 1 || service.transactCalls != 1 || service.confirmCalls != 1 {
		t.Fatalf("unexpected call counts: %+v", service)
	}
}

func TestSubmitAndConfirmIdempotencyPrecheck(t *testing.T) {
	service := &fakeService{
		existsFunc: func(ctx context.Context, certificateNumber string) (bool, error) {
			return true, nil
		},
	}
	manager := newTestManager(t, service)

	_, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 3))
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if !errors.Is(err, ErrAlreadyCommitted) {
		t.Fatalf("expected ErrAlreadyCommitted, got %v", err)
	}
	if service.simulateCalls != 0 || service.transactCalls != 0 {
		t.Fatalf("pre-check must short-circuit, got %+v", service)
	}
}

func TestSubmitAndConfirmSimulationRejectBlocksTransact(t *testing.T) {
	service := &fakeService{
		simulateErr: errors.New("CONTRACT_REVERT_EXECUTED: caller not authorized"),
	}
	manager := newTestManager(t, service)

	_, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 3))
	if err == nil || IsTransient(err) || IsDuplicate(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if service.transactCalls != 0 {
		t.Fatal("simulation reject must not submit")
	}
}

func TestSubmitAndConfirmRetriesTransientThenSucceeds(t *testing.T) {
	service := &fakeService{
		transact: func(attempt int) (TransactionRef, error) {
			if attempt <= 2 {
				return "", errors.New("grpc: connection reset by peer")
			}
			return "0.0.1234@1700000000.000000001", nil
		},
	}
	manager := newTestManager(t, service)

	ref, err := manager.SubmitAndConfirm(context.Background(), MethodCommitBatch,
		NewCallArguments().AddUint64(7), submitOpts("", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref == "" {
		t.Fatal("expected transaction reference")
	}
	if service.transactCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", service.transactCalls)
	}
}

func TestSubmitAndConfirmExhaustsRetryBudget(t *testing.T) {
	service := &fakeService{
		transact: func(attempt int) (TransactionRef, error) {
			return "", errors.New("request timeout")
		},
	}
	manager := newTestManager(t, service)

	_, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 2))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !IsTransient(err) {
		t.Fatalf("exhaustion should classify transient, got %v", err)
	}
	if service.transactCalls != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", service.transactCalls)
	}
}

func TestSubmitAndConfirmFatalNeverRetried(t *testing.T) {
	service := &fakeService{
		transact: func(attempt int) (TransactionRef, error) {
			return "", errors.New("exceptional precheck status INVALID_SIGNATURE")
		},
	}
	manager := newTestManager(t, service)

	_, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 5))
	if err == nil || IsTransient(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if service.transactCalls != 1 {
		t.Fatalf("fatal errors must not be retried, got %d attempts", service.transactCalls)
	}
}

func TestSubmitAndConfirmDuplicateDuringTransact(t *testing.T) {
	service := &fakeService{
		transact: func(attempt int) (TransactionRef, error) {
			return "", errors.New("CONTRACT_REVERT_EXECUTED: certificate already exists")
		},
	}
	manager := newTestManager(t, service)

	_, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 3))
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if service.transactCalls != 1 {
		t.Fatalf("duplicate must not be retried, got %d attempts", service.transactCalls)
	}
}

func TestSubmitAndConfirmAmbiguousConfirmationRecoversByRequery(t *testing.T) {
	committed := false
	service := &fakeService{
		existsFunc: func(ctx context.Context, certificateNumber string) (bool, error) {
			return committed, nil
		},
		confirm: func(attempt int) error {
			committed = true
			return errors.New("receipt request timeout")
		},
	}
	manager := newTestManager(t, service)

	ref, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 3))
	if err != nil {
		t.Fatalf("expected recovery via re-query, got %v", err)
	}
	if ref == "" {
		t.Fatal("expected transaction reference")
	}
	if service.transactCalls != 1 {
		t.Fatalf("recovered submission must not be repeated, got %d attempts", service.transactCalls)
	}
}

func TestSubmitAndConfirmCancelledConfirmationIsAmbiguous(t *testing.T) {
	service := &fakeService{
		confirm: func(attempt int) error {
			return context.Canceled
		},
	}
	manager := newTestManager(t, service)

	ref, err := manager.SubmitAndConfirm(context.Background(), MethodIssueCertificate,
		NewCallArguments().AddString("CERT-001"), submitOpts("CERT-001", 3))
	if !errors.Is(err, ErrOutcomeUnknown) {
		t.Fatalf("expected ErrOutcomeUnknown, got %v", err)
	}
	if ref == "" {
		t.Fatal("ambiguous outcome must still return the reference")
	}
	if service.transactCalls != 1 {
		t.Fatalf("cancelled confirmation must not be retried, got %d attempts", service.transactCalls)
	}
}
