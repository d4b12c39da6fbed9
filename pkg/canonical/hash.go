package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Field is one named certificate attribute. Fields are hashed in the order
// given, which must be the schema's declaration order.
type Field struct {
	Name  string
	Value string
}

// HashField returns the hex-encoded SHA-256 digest of a single field value.
func HashField(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// HashRecord hashes each field independently, serializes the resulting
// {name -> digest} mapping in field order, and returns the hex-encoded
// SHA-256 digest of that serialization. The mapping is written manually
// because encoding/json sorts map keys, and the schema order must win.
func HashRecord(fields []Field) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("at least one field is required")
	}

	seen := make(map[string]struct{}, len(fields))
	var buffer bytes.Buffer
	buffer.WriteByte('{')

	for index, field := range fields {
		if field.Name == "" {
			return "", fmt.Errorf("field %d has an empty name", index)
		}
		if _, duplicate := seen[field.Name]; duplicate {
			return "", fmt.Errorf("duplicate field name %q", field.Name)
		}
		seen[field.Name] = struct{}{}

		if index > 0 {
			buffer.WriteByte(',')
		}

		encodedName, err := json.Marshal(field.Name)
		if err != nil {
			return "", err
		}
		buffer.Write(encodedName)
		buffer.WriteByte(':')

		encodedDigest, err := json.Marshal(HashField(field.Value))
		if err != nil {
			return "", err
		}
		buffer.Write(encodedDigest)
	}

	buffer.WriteByte('}')

	sum := sha256.Sum256(buffer.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
