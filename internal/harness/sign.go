package harness

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// SigningKey is a throwaway release signing key for scenarios. Each suite run
// generates its own; nothing is persisted.
type SigningKey struct {
	key *rsa.PrivateKey
}

func GenerateSigningKey() (*SigningKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &SigningKey{key: key}, nil
}

// Sign produces the detached signature the updater expects: PKCS#1 v1.5 over
// the SHA-256 digest of content.
func (k *SigningKey) Sign(content []byte) ([]byte, error) {
	digest := sha256.Sum256(content)
	sig, err := rsa.SignPKCS1v15(rand.Reader, k.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign content: %w", err)
	}
	return sig, nil
}

// PublicKeyPEM returns the verification key in the PEM PKIX form the updater
// reads from LE_AUTO_PUBLIC_KEY.
func (k *SigningKey) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&k.key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// CorruptSignature flips one bit in the middle of sig, yielding a signature
// that is well-formed but does not verify.
func CorruptSignature(sig []byte) []byte {
	out := append([]byte(nil), sig...)
	if len(out) > 0 {
		out[len(out)/2] ^= 0x01
	}
	return out
}
