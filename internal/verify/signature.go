package verify

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/jedisct1/go-minisign"
)

const (
	FormatRSA      = "rsa"
	FormatMinisign = "minisign"
	FormatEd25519  = "ed25519"
)

var (
	// ErrSignatureMismatch reports a well-formed signature that does not match
	// the content. Callers treat this differently from transport or parse
	// failures: it means the artifact must not be installed.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrChecksumMismatch reports content whose digest differs from the one
	// recorded in the checksum file.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

type SignatureData struct {
	Format string
	Bytes  []byte
}

// DetectSignature classifies detached signature bytes by content. Minisign
// signatures are text starting with "untrusted comment:", raw ed25519
// signatures are exactly 64 bytes (or their hex encoding). Everything else is
// treated as a raw RSA signature, the key-size blob `openssl dgst -sha256
// -sign` produces.
func DetectSignature(data []byte) (SignatureData, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return SignatureData{}, errors.New("empty signature")
	}
	if strings.HasPrefix(trimmed, "untrusted comment:") {
		return SignatureData{Format: FormatMinisign, Bytes: data}, nil
	}
	if len(data) == ed25519.SignatureSize {
		return SignatureData{Format: FormatEd25519, Bytes: data}, nil
	}
	if decoded, err := hex.DecodeString(trimmed); err == nil && len(decoded) == ed25519.SignatureSize {
		return SignatureData{Format: FormatEd25519, Bytes: decoded}, nil
	}
	return SignatureData{Format: FormatRSA, Bytes: data}, nil
}

// ParseRSAPublicKey decodes a PEM "PUBLIC KEY" (PKIX) block holding an RSA key.
func ParseRSAPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("public key is not a PEM PUBLIC KEY block")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported public key type %T", parsed)
	}
	return pub, nil
}

// VerifyRSA checks a detached RSA PKCS#1 v1.5 signature over the SHA-256
// digest of content, matching `openssl dgst -sha256 -verify pub.pem
// -signature f.sig f`.
func VerifyRSA(content, sig, publicKeyPEM []byte) error {
	pub, err := ParseRSAPublicKey(publicKeyPEM)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(content)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return ErrSignatureMismatch
	}
	return nil
}

// VerifyMinisign checks a minisign signature. publicKey is the base64 key
// string (the second line of a minisign .pub file).
func VerifyMinisign(content, sig []byte, publicKey string) error {
	pub, err := minisign.NewPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("parse minisign pubkey: %w", err)
	}
	signature, err := minisign.DecodeSignature(string(sig))
	if err != nil {
		return fmt.Errorf("parse minisign signature: %w", err)
	}
	valid, err := pub.Verify(content, signature)
	if err != nil || !valid {
		return fmt.Errorf("minisign: %w", ErrSignatureMismatch)
	}
	return nil
}

// VerifyEd25519 checks a raw ed25519 signature against a hex-encoded public key.
func VerifyEd25519(content, sig []byte, hexKey string) error {
	normalized, err := NormalizeHexKey(hexKey)
	if err != nil {
		return err
	}
	keyBytes, err := hex.DecodeString(normalized)
	if err != nil {
		return errors.New("invalid ed25519 key provided")
	}
	if !ed25519.Verify(ed25519.PublicKey(keyBytes), content, sig) {
		return ErrSignatureMismatch
	}
	return nil
}
