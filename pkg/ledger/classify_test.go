package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"duplicate certificate", errors.New("CONTRACT_REVERT_EXECUTED: certificate already exists"), KindDuplicate},
		{"duplicate batch", errors.New("duplicate batch id"), KindDuplicate},
		{"revert", errors.New("exceptional halt: CONTRACT_REVERT_EXECUTED"), KindFatal},
		{"invalid signature", errors.New("exceptional precheck status INVALID_SIGNATURE"), KindFatal},
		{"expired", errors.New("TRANSACTION_EXPIRED"), KindFatal},
		{"paused", errors.New("the contract is paused"), KindFatal},
		{"unauthorized", errors.New("caller not authorized"), KindFatal},
		{"insufficient balance", errors.New("INSUFFICIENT_PAYER_BALANCE"), KindFatal},
		{"timeout", errors.New("rpc error: deadline timeout"), KindTransient},
		{"connection reset", errors.New("read tcp: connection reset by peer"), KindTransient},
		{"grpc unavailable", errors.New("rpc error: code = Unavailable desc = transport closing"), KindTransient},
		{"broken pipe", errors.New("write: broken pipe"), KindTransient},
		{"eof", errors.New("unexpected EOF"), KindTransient},
		{"bare eof sentinel", io.EOF, KindTransient},
		{"wrapped eof sentinel", fmt.Errorf("reading response: %w", io.ErrUnexpectedEOF), KindTransient},
		{"temporarily unavailable", errors.New("service temporarily unavailable"), KindTransient},
		{"eof inside unrelated word", errors.New("geofence check failed"), KindFatal},
		{"unknown defaults to fatal", errors.New("something nobody anticipated"), KindFatal},
		{"nil", nil, KindFatal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// Duplicate markers win over fatal ones, fatal over transient.
	err := errors.New("CONTRACT_REVERT_EXECUTED: certificate already exists (request timeout)")
	if got := Classify(err); got != KindDuplicate {
		t.Fatalf("expected duplicate, got %v", got)
	}
	err = errors.New("execution revert after connection reset")
	if got := Classify(err); got != KindFatal {
		t.Fatalf("expected fatal, got %v", got)
	}
}

func TestClassifyContextErrorsAreFatal(t *testing.T) {
	if got := Classify(context.Canceled); got != KindFatal {
		t.Fatalf("expected fatal for cancellation, got %v", got)
	}
	wrapped := fmt.Errorf("awaiting receipt: %w", context.DeadlineExceeded)
	if got := Classify(wrapped); got != KindFatal {
		t.Fatalf("expected fatal for deadline, got %v", got)
	}
}

func TestErrorHelpers(t *testing.T) {
	dup := &Error{Kind: KindDuplicate, Op: "precheck", Err: ErrAlreadyCommitted}
	if !IsDuplicate(dup) {
		t.Fatal("expected IsDuplicate")
	}
	if !errors.Is(dup, ErrAlreadyCommitted) {
		t.Fatal("expected unwrap to ErrAlreadyCommitted")
	}
	transient := &Error{Kind: KindTransient, Op: "submit", Err: errors.New("timeout")}
	if !IsTransient(transient) || IsDuplicate(transient) {
		t.Fatalf("unexpected classification helpers for %v", transient)
	}
}
