// Package issuer runs the issuance pipeline: validate certificate
// details, hash them canonically, anchor the commitment on the ledger,
// persist the record, and produce the encrypted verification payload
// and link. Batch issuance commits a Merkle root over the leaf hashes
// and stores a proof per leaf.
package issuer
