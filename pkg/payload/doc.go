// Package payload encrypts and decrypts the compact verification payloads
// embedded in certificate QR codes and verification links.
//
// Payloads are string-to-string field mappings, serialized as JSON,
// Brotli-compressed, and sealed with AES-256-GCM under a freshly generated
// 12-byte IV per payload. The codec never sees its transport: callers carry
// the base64 ciphertext and IV inside a QR image or URL query parameters.
//
// Keys are provisioned out-of-band: a 32-byte operator secret, or a
// per-recipient key derived via secp256k1 ECDH.
//
// Decrypt rejects any ciphertext/IV pair that does not originate from a
// matching Encrypt call and never returns partial plaintext.
package payload
