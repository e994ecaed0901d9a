// Package seal provides authenticated encryption for export documents.
//
// A sealed document is self-describing:
//
//	magic "LDX1" | salt (16 bytes) | nonce (12 bytes) | ciphertext+tag
//
// The per-document key is derived from the configured secret and the random
// salt with HKDF-SHA256, then used with ChaCha20-Poly1305. Every Seal call
// draws a fresh salt and nonce, so one secret can seal any number of
// documents.
//
// Usage:
//
//	s, err := seal.New(secret)
//	sealed, err := s.Seal(document, nil)
//	document, err := s.Open(sealed, nil)
package seal
