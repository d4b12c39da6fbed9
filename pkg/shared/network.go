package shared

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// NormalizeNetwork lower-cases and trims a network name, defaulting to
// testnet when empty.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}

	switch normalized {
	case NetworkMainnet, NetworkTestnet:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// NewHederaClient constructs a Hedera SDK client for the named network.
func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}

	if normalized == NetworkMainnet {
		return hedera.ClientForMainnet(), nil
	}

	return hedera.ClientForTestnet(), nil
}

// NewOperatorClient constructs a Hedera client with the issuer's
// operator credentials applied.
func NewOperatorClient(config IssuerConfig) (*hedera.Client, error) {
	client, err := NewHederaClient(config.Network)
	if err != nil {
		return nil, err
	}

	accountID, err := hedera.AccountIDFromString(strings.TrimSpace(config.AccountID))
	if err != nil {
		return nil, fmt.Errorf("invalid account ID %q: %w", config.AccountID, err)
	}
	privateKey, err := ParsePrivateKey(config.PrivateKey)
	if err != nil {
		return nil, err
	}

	client.SetOperator(accountID, privateKey)
	return client, nil
}
