package ledger

import (
	"time"
)

// TransactionRef identifies a submitted ledger transaction, in the
// SDK's transaction ID string form.
type TransactionRef string

func (r TransactionRef) String() string { return string(r) }

type argumentKind int

const (
	argString argumentKind = iota
	argUint64
	argBytes32
	argStringArray
)

type callArgument struct {
	kind    argumentKind
	str     string
	num     uint64
	bytes32 [32]byte
	strs    []string
}

// CallArguments accumulates typed contract-call parameters in the
// order they will be passed to the contract function.
type CallArguments struct {
	args []callArgument
}

// NewCallArguments creates a new CallArguments.
func NewCallArguments() *CallArguments {
	return &CallArguments{}
}

// AddString appends a string parameter.
func (a *CallArguments) AddString(value string) *CallArguments {
	a.args = append(a.args, callArgument{kind: argString, str: value})
	return a
}

// AddUint64 appends a uint64 parameter.
func (a *CallArguments) AddUint64(value uint64) *CallArguments {
	a.args = append(a.args, callArgument{kind: argUint64, num: value})
	return a
}

// AddBytes32 appends a fixed 32-byte parameter, as used for digest
// arguments.
func (a *CallArguments) AddBytes32(value [32]byte) *CallArguments {
	a.args = append(a.args, callArgument{kind: argBytes32, bytes32: value})
	return a
}

// AddStringArray appends a string-array parameter, as used for the
// per-leaf certificate numbers and content hashes of a batch
// commitment.
func (a *CallArguments) AddStringArray(values []string) *CallArguments {
	a.args = append(a.args, callArgument{kind: argStringArray, strs: append([]string(nil), values...)})
	return a
}

// Values returns the accumulated parameter values in order. Useful for
// logging and for test doubles standing in for the contract.
func (a *CallArguments) Values() []any {
	if a == nil {
		return nil
	}
	values := make([]any, 0, len(a.args))
	for _, argument := range a.args {
		switch argument.kind {
		case argString:
			values = append(values, argument.str)
		case argUint64:
			values = append(values, argument.num)
		case argBytes32:
			values = append(values, argument.bytes32)
		case argStringArray:
			values = append(values, append([]string(nil), argument.strs...))
		}
	}
	return values
}

// Len reports the number of accumulated parameters.
func (a *CallArguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.args)
}

// SubmitOptions control a SubmitAndConfirm run.
type SubmitOptions struct {
	// CertificateNumber, when set, enables the idempotency pre-check:
	// the manager refuses to submit when the ledger already holds a
	// commitment for this number.
	CertificateNumber string

	// MaxRetries bounds re-submission after transient failures. The
	// first attempt is not a retry: MaxRetries of 3 allows up to four
	// attempts in total.
	MaxRetries int

	// RetryDelay is the fixed wait between attempts. Zero means
	// DefaultRetryDelay.
	RetryDelay time.Duration

	// Memo is attached to the transaction when the backend supports
	// memos.
	Memo string
}

// DefaultRetryDelay is the fixed inter-attempt wait used when
// SubmitOptions.RetryDelay is zero.
const DefaultRetryDelay = 2 * time.Second
