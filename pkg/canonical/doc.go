// Package canonical implements deterministic content hashing for
// certificate records.
//
// Each field value is hashed independently with SHA-256, and the combined
// content hash is the SHA-256 digest of the serialized
// {fieldName -> fieldDigest} mapping written in schema declaration order.
// The serialization is byte-identical across runs, so any holder of the
// plaintext fields can re-derive the on-ledger value exactly. There is no
// salt and no nonce: the hash is intentionally reproducible.
package canonical
