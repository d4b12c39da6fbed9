package issuer

import (
	"fmt"
	"strings"
	"time"
)

const (
	minCertificateNumberLength = 3
	maxCertificateNumberLength = 64
)

// ValidationError reports a rejected certificate field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateDetails checks certificate details against the schema rules.
// The expiration date is optional; every other field is required.
func ValidateDetails(details CertificateDetails) error {
	if err := validateCertificateNumber(details.CertificateNumber); err != nil {
		return err
	}
	if strings.TrimSpace(details.Name) == "" {
		return &ValidationError{Field: "name", Message: "value is required"}
	}
	if strings.TrimSpace(details.CourseName) == "" {
		return &ValidationError{Field: "course_name", Message: "value is required"}
	}
	if err := validateDate("grant_date", details.GrantDate, true); err != nil {
		return err
	}
	if err := validateDate("expiration_date", details.ExpirationDate, false); err != nil {
		return err
	}
	return nil
}

func validateCertificateNumber(certificateNumber string) error {
	if certificateNumber != strings.TrimSpace(certificateNumber) {
		return &ValidationError{Field: "certificate_number", Message: "leading or trailing whitespace"}
	}
	if len(certificateNumber) < minCertificateNumberLength {
		return &ValidationError{
			Field:   "certificate_number",
			Message: fmt.Sprintf("must be at least %d characters", minCertificateNumberLength),
		}
	}
	if len(certificateNumber) > maxCertificateNumberLength {
		return &ValidationError{
			Field:   "certificate_number",
			Message: fmt.Sprintf("must be at most %d characters", maxCertificateNumberLength),
		}
	}
	for _, r := range certificateNumber {
		if r <= ' ' || r > '~' {
			return &ValidationError{
				Field:   "certificate_number",
				Message: "must be printable ASCII without whitespace",
			}
		}
	}
	return nil
}

func validateDate(field, value string, required bool) error {
	if strings.TrimSpace(value) == "" {
		if required {
			return &ValidationError{Field: field, Message: "value is required"}
		}
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return &ValidationError{Field: field, Message: "must be a YYYY-MM-DD date"}
	}
	return nil
}
