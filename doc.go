// The Certify SDK for Go issues and verifies tamper-evident digital
// certificates anchored to the Hedera public ledger. It provides canonical
// content hashing, Merkle-tree batch commitments with inclusion proofs,
// idempotent ledger-transaction submission with bounded retry, an encrypted
// verification-payload codec for QR codes and links, and a multi-path
// verification engine that reconciles persisted records with on-ledger
// state.
//
// # Packages
//
// The SDK is organized into focused packages:
//
//   - canonical: deterministic field and record content hashing
//   - merkle: batch commitments, inclusion proofs, proof verification
//   - ledger: capability-scoped ledger access and transaction management
//   - payload: encrypted verification payloads for QR/URL transport
//   - verify: the verification engine over payloads, IDs, and links
//   - store: the certificate record store contract and implementations
//   - issuer: the issuance pipeline tying the components together
//   - mirror: mirror-node reads for transaction lookups
//   - shared: credentials, network selection, and client construction
//
// # Getting Started
//
// Construct an issuer client and issue a certificate:
//
//	config, err := shared.IssuerConfigFromEnv()
//	client, err := issuer.NewClient(issuer.Config{ /* ... */ })
//	result, err := client.IssueCertificate(ctx, issuer.CertificateDetails{
//		CertificateNumber: "CERT-001",
//		Name:              "Jane Holder",
//		CourseName:        "Distributed Systems",
//		GrantDate:         "2026-01-15",
//		ExpirationDate:    "2028-01-15",
//	})
//
// Runnable programs live under examples/.
package certify_sdk_go
