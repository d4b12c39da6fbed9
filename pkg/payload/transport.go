package payload

import (
	"fmt"
	"net/url"
	"strings"
)

// Query parameter names used when a payload travels inside a verification
// link or QR-encoded URL.
const (
	QueryKeyData = "data"
	QueryKeyIV   = "iv"
)

// QueryValues returns the payload as an opaque string-to-string mapping for
// URL or QR transport.
func (e Encrypted) QueryValues() map[string]string {
	return map[string]string{
		QueryKeyData: e.Ciphertext,
		QueryKeyIV:   e.IV,
	}
}

// FromQueryValues reassembles a payload from its transport mapping.
func FromQueryValues(values map[string]string) (Encrypted, error) {
	ciphertext := strings.TrimSpace(values[QueryKeyData])
	iv := strings.TrimSpace(values[QueryKeyIV])
	if ciphertext == "" || iv == "" {
		return Encrypted{}, fmt.Errorf("transport mapping must carry %q and %q", QueryKeyData, QueryKeyIV)
	}
	return Encrypted{Ciphertext: ciphertext, IV: iv}, nil
}

// BuildVerificationURL attaches a sealed payload to a verification base URL.
func BuildVerificationURL(baseURL string, encrypted Encrypted) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "", fmt.Errorf("verification base URL is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid verification base URL: %w", err)
	}

	query := parsed.Query()
	query.Set(QueryKeyData, encrypted.Ciphertext)
	query.Set(QueryKeyIV, encrypted.IV)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// ParseVerificationURL extracts a sealed payload from a verification link.
func ParseVerificationURL(link string) (Encrypted, error) {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return Encrypted{}, fmt.Errorf("invalid verification link: %w", err)
	}

	query := parsed.Query()
	return FromQueryValues(map[string]string{
		QueryKeyData: query.Get(QueryKeyData),
		QueryKeyIV:   query.Get(QueryKeyIV),
	})
}
