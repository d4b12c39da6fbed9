package payload

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/btcsuite/btcd/btcec/v2"
)

// ErrDecryption reports a malformed or forged payload: wrong key, corrupted
// IV, truncated ciphertext, or an authentication failure.
var ErrDecryption = errors.New("payload decryption failed")

// Encrypted is a sealed verification payload in transport encoding.
type Encrypted struct {
	Ciphertext string
	IV         string
}

// KeyPair is a hex-encoded secp256k1 key pair for per-recipient payload
// key derivation.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// Codec seals and opens verification payloads under a fixed symmetric key.
type Codec struct {
	key []byte
}

// NewCodec constructs a codec from a raw secret. A 32-byte secret is used
// as-is; anything else is normalized through SHA-256.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("payload key is required")
	}
	if len(secret) == 32 {
		key := make([]byte, 32)
		copy(key, secret)
		return &Codec{key: key}, nil
	}
	digest := sha256.Sum256(secret)
	return &Codec{key: digest[:]}, nil
}

// NewCodecFromString constructs a codec from an operator-provided secret
// string: a 64-character hex key decodes to its raw bytes, anything else is
// treated as a passphrase.
func NewCodecFromString(secret string) (*Codec, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, fmt.Errorf("payload key is required")
	}

	if len(trimmed) == 64 {
		if decoded, err := hex.DecodeString(trimmed); err == nil {
			return NewCodec(decoded)
		}
	}

	return NewCodec([]byte(trimmed))
}

// NewCodecFromSharedSecret derives a codec key via secp256k1 ECDH between
// the holder's private key and the peer's compressed public key. Both sides
// of the exchange derive the same codec.
func NewCodecFromSharedSecret(privateKeyHex, peerPublicKeyHex string) (*Codec, error) {
	privateKeyBytes, err := parseHexKey(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	peerPublicKeyBytes, err := parseHexKey(peerPublicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("peer public key: %w", err)
	}

	privateKey, _ := btcec.PrivKeyFromBytes(privateKeyBytes)
	peerPublicKey, err := btcec.ParsePubKey(peerPublicKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("peer public key: %w", err)
	}

	sharedSecret := btcec.GenerateSharedSecret(privateKey, peerPublicKey)
	digest := sha256.Sum256(sharedSecret)
	return &Codec{key: digest[:]}, nil
}

// GenerateRecipientKeyPair creates a fresh secp256k1 key pair for
// per-recipient payload keys.
func GenerateRecipientKeyPair() (KeyPair, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		PrivateKey: hex.EncodeToString(privateKey.Serialize()),
		PublicKey:  hex.EncodeToString(privateKey.PubKey().SerializeCompressed()),
	}, nil
}

// Encrypt seals a field mapping under a freshly generated IV. The IV is
// never reused across payloads.
func (c *Codec) Encrypt(fields map[string]string) (Encrypted, error) {
	if len(fields) == 0 {
		return Encrypted{}, fmt.Errorf("payload fields are required")
	}

	plaintext, err := json.Marshal(fields)
	if err != nil {
		return Encrypted{}, err
	}

	var compressed bytes.Buffer
	writer := brotli.NewWriter(&compressed)
	if _, err := writer.Write(plaintext); err != nil {
		return Encrypted{}, err
	}
	if err := writer.Close(); err != nil {
		return Encrypted{}, err
	}

	gcm, err := c.newGCM()
	if err != nil {
		return Encrypted{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Encrypted{}, err
	}

	sealed := gcm.Seal(nil, nonce, compressed.Bytes(), nil)

	return Encrypted{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
		IV:         base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens a sealed payload and returns the original field mapping.
// Any mismatch between ciphertext, IV, and key yields ErrDecryption.
func (c *Codec) Decrypt(ciphertext, iv string) (map[string]string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not valid base64", ErrDecryption)
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return nil, fmt.Errorf("%w: iv is not valid base64", ErrDecryption)
	}

	gcm, err := c.newGCM()
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: iv has wrong length", ErrDecryption)
	}

	compressed, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryption)
	}

	reader := brotli.NewReader(bytes.NewReader(compressed))
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not valid compressed data", ErrDecryption)
	}

	fields := make(map[string]string)
	if err := json.Unmarshal(plaintext, &fields); err != nil {
		return nil, fmt.Errorf("%w: payload is not a field mapping", ErrDecryption)
	}

	return fields, nil
}

func (c *Codec) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func parseHexKey(value string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("hex key is required")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
