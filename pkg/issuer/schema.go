package issuer

import (
	"github.com/certledger-online/certify-sdk-go/pkg/canonical"
)

// schemaFields lays out the certificate schema in its fixed
// declaration order. Hashing depends on this order staying stable.
func schemaFields(details CertificateDetails) []canonical.Field {
	return []canonical.Field{
		{Name: "certificate_number", Value: details.CertificateNumber},
		{Name: "name", Value: details.Name},
		{Name: "course_name", Value: details.CourseName},
		{Name: "grant_date", Value: details.GrantDate},
		{Name: "expiration_date", Value: details.ExpirationDate},
	}
}

// ContentHash computes the canonical content hash for the details.
func ContentHash(details CertificateDetails) (string, error) {
	return canonical.HashRecord(schemaFields(details))
}
