// Package ledger submits and confirms certificate commitments on a
// Hedera smart contract and classifies the failures that come back.
//
// The Manager drives a submission through a fixed state machine:
// idempotency pre-check, simulation, bounded retries around
// transact-and-confirm with a fixed inter-attempt delay. Errors are
// resolved through an ordered decision table (duplicate markers first,
// then fatal, then transient); anything unmatched is treated as fatal
// so an unknown failure is never retried into a duplicate commitment.
package ledger
