package issuer

import (
	"github.com/certledger-online/certify-sdk-go/pkg/payload"
	"github.com/certledger-online/certify-sdk-go/pkg/store"
)

// CertificateDetails are the plaintext fields of one certificate, in
// the registry's fixed schema.
type CertificateDetails struct {
	CertificateNumber string `json:"certificate_number"`
	Name              string `json:"name"`
	CourseName        string `json:"course_name"`
	GrantDate         string `json:"grant_date"`
	ExpirationDate    string `json:"expiration_date"`
}

// IssuedCertificate is the result of a single issuance: the persisted
// record plus the encrypted payload and verification link handed to
// the holder.
type IssuedCertificate struct {
	Record          store.CertificateRecord
	Payload         payload.Encrypted
	VerificationURL string
}

// IssuedBatch is the result of a batch issuance. Certificates[i]
// corresponds to Leaves[i].
type IssuedBatch struct {
	Commitment   store.BatchCommitment
	Leaves       []store.LeafRecord
	Certificates []IssuedCertificate
}
