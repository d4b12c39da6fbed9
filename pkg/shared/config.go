package shared

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// IssuerConfig carries the credentials and endpoints an issuing process
// needs: the operator identity for ledger writes, the certificate registry
// contract, and the symmetric key protecting verification payloads.
type IssuerConfig struct {
	AccountID           string
	PrivateKey          string
	Network             string
	ContractID          string
	PayloadKey          string
	VerificationBaseURL string
}

var dotenvLoadOnce sync.Once

// IssuerConfigFromEnv loads issuer credentials from the environment,
// consulting a .env file found by walking up from the working directory.
func IssuerConfigFromEnv() (IssuerConfig, error) {
	loadDotEnvIfPresent()

	network := firstNonEmptyEnv("CERTIFY_NETWORK", "HEDERA_NETWORK")
	if network == "" {
		network = NetworkTestnet
	}

	accountID := firstNonEmptyEnv("CERTIFY_ACCOUNT_ID", "HEDERA_ACCOUNT_ID", "HEDERA_OPERATOR_ID")
	privateKey := firstNonEmptyEnv("CERTIFY_PRIVATE_KEY", "HEDERA_PRIVATE_KEY", "HEDERA_OPERATOR_KEY")
	contractID := firstNonEmptyEnv("CERTIFY_CONTRACT_ID")
	payloadKey := firstNonEmptyEnv("CERTIFY_PAYLOAD_KEY")

	if accountID == "" {
		return IssuerConfig{}, fmt.Errorf("CERTIFY_ACCOUNT_ID is required")
	}
	if privateKey == "" {
		return IssuerConfig{}, fmt.Errorf("CERTIFY_PRIVATE_KEY is required")
	}
	if contractID == "" {
		return IssuerConfig{}, fmt.Errorf("CERTIFY_CONTRACT_ID is required")
	}
	if payloadKey == "" {
		return IssuerConfig{}, fmt.Errorf("CERTIFY_PAYLOAD_KEY is required")
	}

	return IssuerConfig{
		AccountID:           accountID,
		PrivateKey:          privateKey,
		Network:             network,
		ContractID:          contractID,
		PayloadKey:          payloadKey,
		VerificationBaseURL: firstNonEmptyEnv("CERTIFY_VERIFICATION_BASE_URL"),
	}, nil
}

func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		current, err := os.Getwd()
		if err != nil {
			return
		}

		for {
			candidate := filepath.Join(current, ".env")
			if _, statErr := os.Stat(candidate); statErr == nil {
				loadDotEnvFile(candidate)
				return
			}

			parent := filepath.Dir(current)
			if parent == current {
				return
			}
			current = parent
		}
	})
}

func loadDotEnvFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}

		separator := strings.Index(line, "=")
		if separator <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:separator])
		if !isValidEnvKey(key) {
			continue
		}
		if _, alreadySet := os.LookupEnv(key); alreadySet {
			continue
		}

		value := strings.TrimSpace(line[separator+1:])
		if len(value) >= 2 {
			first := value[0]
			last := value[len(value)-1]
			if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		_ = os.Setenv(key, value)
	}
}

func isValidEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for index, character := range key {
		if (character >= 'A' && character <= 'Z') ||
			(character >= 'a' && character <= 'z') ||
			(index > 0 && character >= '0' && character <= '9') ||
			character == '_' {
			continue
		}
		return false
	}
	return true
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}
