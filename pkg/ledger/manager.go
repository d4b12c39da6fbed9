package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager drives state-changing contract calls through idempotency
// pre-check, simulation, bounded retry and confirmation.
type Manager struct {
	service Service
	log     *logrus.Logger
}

// NewManager creates a new Manager.
func NewManager(service Service, log *logrus.Logger) (*Manager, error) {
	if service == nil {
		return nil, fmt.Errorf("ledger service is required")
	}
	if log == nil {
		log = logrus.New()
	}
	return &Manager{service: service, log: log}, nil
}

// SubmitAndConfirm runs the full submission state machine for one
// contract call and returns the confirmed transaction reference.
//
// Only transient failures consume the retry budget; duplicate and
// fatal classifications return immediately. When the confirmation wait
// is interrupted after a successful submission the outcome is
// ambiguous and ErrOutcomeUnknown is returned together with the
// reference, so the caller can re-query ledger state.
func (m *Manager) SubmitAndConfirm(ctx context.Context, method string, args *CallArguments, opts SubmitOptions) (TransactionRef, error) {
	if opts.CertificateNumber != "" {
		exists, err := m.service.CertificateExists(ctx, opts.CertificateNumber)
		if err != nil {
			return "", &Error{Kind: Classify(err), Op: "precheck", Method: method, Err: err}
		}
		if exists {
			return "", &Error{Kind: KindDuplicate, Op: "precheck", Method: method, Err: ErrAlreadyCommitted}
		}
	}

	if err := m.service.Simulate(ctx, method, args); err != nil {
		return "", &Error{Kind: Classify(err), Op: "simulate", Method: method, Err: err}
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	fields := logrus.Fields{"method": method}
	if opts.CertificateNumber != "" {
		fields["certificate_number"] = opts.CertificateNumber
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			m.log.WithFields(fields).WithField("attempt", attempt).
				Warnf("retrying after transient failure: %v", lastErr)
			select {
			case <-ctx.Done():
				return "", &Error{Kind: KindFatal, Op: "retry", Method: method, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		ref, err := m.service.Transact(ctx, method, args, opts.Memo)
		if err != nil {
			kind := Classify(err)
			if kind != KindTransient {
				return "", &Error{Kind: kind, Op: "transact", Method: method, Err: err}
			}
			lastErr = err
			continue
		}

		confirmErr := m.service.AwaitConfirmation(ctx, ref)
		if confirmErr == nil {
			m.log.WithFields(fields).WithField("transaction_ref", ref.String()).
				Info("transaction confirmed")
			return ref, nil
		}

		if errors.Is(confirmErr, context.Canceled) || errors.Is(confirmErr, context.DeadlineExceeded) {
			return ref, fmt.Errorf("%w: %v", ErrOutcomeUnknown, confirmErr)
		}

		kind := Classify(confirmErr)
		if kind != KindTransient {
			return "", &Error{Kind: kind, Op: "confirm", Method: method, Err: confirmErr}
		}

		// The transaction reached the network but its receipt did
		// not come back. Re-query state when we can; retrying blindly
		// could commit twice.
		if opts.CertificateNumber != "" {
			exists, queryErr := m.service.CertificateExists(ctx, opts.CertificateNumber)
			if queryErr == nil && exists {
				m.log.WithFields(fields).WithField("transaction_ref", ref.String()).
					Info("commitment found on re-query after ambiguous confirmation")
				return ref, nil
			}
			if queryErr == nil {
				lastErr = confirmErr
				continue
			}
		}
		return ref, fmt.Errorf("%w: %v", ErrOutcomeUnknown, confirmErr)
	}

	return "", &Error{
		Kind:   KindTransient,
		Op:     "submit",
		Method: method,
		Err:    fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, maxRetries+1, lastErr),
	}
}
