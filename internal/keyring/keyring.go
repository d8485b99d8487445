// Package keyring resolves raw secret key material into a signing identity.
// Resolution is a pure transformation; no network access happens here.
package keyring

import (
	"crypto/ed25519"
	"encoding/json"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"solana-token-api/internal/domain"
)

// SecretKeyLength is the expected secret length: a 32-byte seed followed
// by the 32-byte public key, per the ed25519 key format used by the ledger.
const SecretKeyLength = 64

// Keypair is a signing identity derived from a raw secret. It is recreated
// per request and never persisted.
type Keypair struct {
	priv solana.PrivateKey
}

// FromSecretBytes derives a Keypair from a raw 64-byte secret. The embedded
// public half must match the key derived from the seed.
func FromSecretBytes(secret []byte) (*Keypair, error) {
	if len(secret) != SecretKeyLength {
		return nil, domain.NewFieldError("privateKey", "secret key must be exactly 64 bytes")
	}
	derived := ed25519.NewKeyFromSeed(secret[:32])
	if string(derived.Public().(ed25519.PublicKey)) != string(secret[32:]) {
		return nil, domain.NewFieldError("privateKey", "public key half does not match seed")
	}
	priv := solana.PrivateKey(append([]byte(nil), secret...))
	if !IsOnCurve(priv.PublicKey()) {
		return nil, domain.NewFieldError("privateKey", "public key is not on the ed25519 curve")
	}
	return &Keypair{priv: priv}, nil
}

// PublicKey returns the identity's public address.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.priv.PublicKey()
}

// Sign produces a signature over an arbitrary byte payload.
func (k *Keypair) Sign(payload []byte) (solana.Signature, error) {
	return k.priv.Sign(payload)
}

// Private exposes the underlying private key for transaction signing.
func (k *Keypair) Private() solana.PrivateKey {
	return k.priv
}

// ParseSecret decodes a secret key string into raw bytes. Both base58 and
// JSON byte-array encodings are accepted.
func ParseSecret(s string) ([]byte, error) {
	if s == "" {
		return nil, domain.NewFieldError("privateKey", "secret key is empty")
	}
	if s[0] == '[' {
		var raw []byte
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, domain.NewFieldError("privateKey", "secret key is not a valid JSON byte array")
		}
		return raw, nil
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, domain.NewFieldError("privateKey", "secret key is not valid base58")
	}
	return raw, nil
}

// IsOnCurve reports whether pk decompresses to a valid ed25519 curve point.
// Program-derived addresses are guaranteed off-curve and fail this check.
func IsOnCurve(pk solana.PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk.Bytes())
	return err == nil
}
