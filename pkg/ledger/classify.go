package ledger

import (
	"context"
	"errors"
	"io"
	"strings"
)

// The decision table is ordered: duplicate markers are checked before
// fatal ones, fatal before transient, and the first match wins. An
// error matching nothing is fatal.
var (
	duplicateMarkers = []string{
		"already exists",
		"already issued",
		"already committed",
		"duplicate certificate",
		"duplicate batch",
	}

	fatalMarkers = []string{
		"contract_revert_executed",
		"revert",
		"invalid_signature",
		"invalid signature",
		"transaction_expired",
		"transaction expired",
		"invalid_transaction",
		"paused",
		"unauthorized",
		"not authorized",
		"insufficient_payer_balance",
		"insufficient payer balance",
		"invalid contract",
	}

	transientMarkers = []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"unavailable",
		"broken pipe",
		"unexpected eof",
		"busy",
		"throttled",
		"max attempts",
	}
)

// Classify resolves err against the ordered marker table. Context
// cancellation is fatal regardless of message text: an interrupted
// submission must never be retried blindly, the outcome has to be
// re-queried instead.
func Classify(err error) Kind {
	if err == nil {
		return KindFatal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindFatal
	}

	message := strings.ToLower(err.Error())
	for _, marker := range duplicateMarkers {
		if strings.Contains(message, marker) {
			return KindDuplicate
		}
	}
	for _, marker := range fatalMarkers {
		if strings.Contains(message, marker) {
			return KindFatal
		}
	}
	// A bare EOF carries no usable message text; match the sentinel
	// itself instead of the three-letter substring.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindTransient
	}
	for _, marker := range transientMarkers {
		if strings.Contains(message, marker) {
			return KindTransient
		}
	}
	return KindFatal
}
