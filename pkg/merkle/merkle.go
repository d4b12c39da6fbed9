package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoLeaves reports an attempt to build a commitment over an empty batch.
var ErrNoLeaves = errors.New("at least one leaf is required")

// Leaf is one committed entry: its position, content digest, inclusion
// proof, and the proof's digest.
type Leaf struct {
	Index       int
	Digest      string
	Proof       []string
	ProofDigest string
}

// Tree is the commitment over a batch: the root digest and one Leaf per
// input digest, in input order.
type Tree struct {
	Root   string
	Leaves []Leaf
}

// Build constructs the commitment tree over the given hex-encoded leaf
// digests and derives every leaf's inclusion proof.
func Build(leafDigests []string) (Tree, error) {
	if len(leafDigests) == 0 {
		return Tree{}, ErrNoLeaves
	}

	levels := make([][][]byte, 0, 8)
	base := make([][]byte, 0, len(leafDigests))
	for index, digest := range leafDigests {
		decoded, err := decodeDigest(digest)
		if err != nil {
			return Tree{}, fmt.Errorf("leaf %d: %w", index, err)
		}
		base = append(base, decoded)
	}
	levels = append(levels, base)

	for len(levels[len(levels)-1]) > 1 {
		current := levels[len(levels)-1]
		next := make([][]byte, 0, (len(current)+1)/2)
		for index := 0; index < len(current); index += 2 {
			left := current[index]
			right := left
			if index+1 < len(current) {
				right = current[index+1]
			}
			next = append(next, hashPair(left, right))
		}
		levels = append(levels, next)
	}

	root := hex.EncodeToString(levels[len(levels)-1][0])

	leaves := make([]Leaf, 0, len(leafDigests))
	for position := range leafDigests {
		proof := proofForIndex(levels, position)
		proofDigest, err := ProofDigest(proof)
		if err != nil {
			return Tree{}, err
		}
		leaves = append(leaves, Leaf{
			Index:       position,
			Digest:      leafDigests[position],
			Proof:       proof,
			ProofDigest: proofDigest,
		})
	}

	return Tree{Root: root, Leaves: leaves}, nil
}

// VerifyProof re-folds a leaf digest with each sibling in order and reports
// whether the result equals the expected root. A false result signals a
// tampered leaf, a tampered proof, or the wrong root.
func VerifyProof(leafDigest string, index int, proof []string, root string) (bool, error) {
	if index < 0 {
		return false, fmt.Errorf("leaf index must be non-negative")
	}

	current, err := decodeDigest(leafDigest)
	if err != nil {
		return false, fmt.Errorf("leaf digest: %w", err)
	}

	position := index
	for step, sibling := range proof {
		siblingBytes, err := decodeDigest(sibling)
		if err != nil {
			return false, fmt.Errorf("proof element %d: %w", step, err)
		}

		if position%2 == 0 {
			current = hashPair(current, siblingBytes)
		} else {
			current = hashPair(siblingBytes, current)
		}
		position /= 2
	}

	return hex.EncodeToString(current) == root, nil
}

// ProofDigest returns the hex-encoded SHA-256 digest of the compact JSON
// serialization of a proof. Proofs serialize as JSON arrays, a nil proof as
// the empty array.
func ProofDigest(proof []string) (string, error) {
	if proof == nil {
		proof = []string{}
	}
	serialized, err := json.Marshal(proof)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:]), nil
}

func proofForIndex(levels [][][]byte, index int) []string {
	proof := make([]string, 0, len(levels)-1)
	position := index
	for _, level := range levels[:len(levels)-1] {
		sibling := position ^ 1
		if sibling >= len(level) {
			sibling = position
		}
		proof = append(proof, hex.EncodeToString(level[sibling]))
		position /= 2
	}
	return proof
}

func hashPair(left, right []byte) []byte {
	payload := make([]byte, 0, len(left)+len(right))
	payload = append(payload, left...)
	payload = append(payload, right...)
	sum := sha256.Sum256(payload)
	return sum[:]
}

func decodeDigest(digest string) ([]byte, error) {
	if digest == "" {
		return nil, fmt.Errorf("digest is empty")
	}
	decoded, err := hex.DecodeString(digest)
	if err != nil {
		return nil, fmt.Errorf("digest must be valid hex: %w", err)
	}
	return decoded, nil
}
