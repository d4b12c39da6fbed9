// Package shared provides common utilities used across the Certify SDK for
// Go. It includes network normalization, issuer credential loading from the
// environment, Hedera client construction, and key parsing helpers.
//
// This package is typically used internally by other SDK packages but is
// also available for direct use when wiring the SDK into a service.
//
// # Environment Variables
//
// Issuer credentials load from environment variables or a .env file found by
// walking up from the working directory:
//
//	CERTIFY_NETWORK      (or HEDERA_NETWORK; defaults to testnet)
//	CERTIFY_ACCOUNT_ID   (or HEDERA_ACCOUNT_ID / HEDERA_OPERATOR_ID)
//	CERTIFY_PRIVATE_KEY  (or HEDERA_PRIVATE_KEY / HEDERA_OPERATOR_KEY)
//	CERTIFY_CONTRACT_ID  certificate registry contract
//	CERTIFY_PAYLOAD_KEY  symmetric key for verification payloads
//	CERTIFY_VERIFICATION_BASE_URL  optional link base for issued artifacts
package shared
