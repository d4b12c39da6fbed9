package issuer

import "errors"

// ErrDuplicateCertificate reports that a certificate number is already
// taken, whether detected locally or on the ledger.
var ErrDuplicateCertificate = errors.New("certificate number already issued")

// ErrIssuancePaused reports that the registry contract is paused.
var ErrIssuancePaused = errors.New("issuance is paused")

// ErrNotAuthorized reports that the operator account is not an
// authorized issuer.
var ErrNotAuthorized = errors.New("account is not an authorized issuer")
