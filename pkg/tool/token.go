package tool

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// ApprovalTokenBytes is the entropy of an approval token before encoding.
const ApprovalTokenBytes = 32

// TokenIssuer produces unguessable single-use approval tokens.
type TokenIssuer interface {
	Issue() (string, error)
}

type randomTokenIssuer struct{}

// NewTokenIssuer returns an issuer backed by crypto/rand.
func NewTokenIssuer() TokenIssuer {
	return randomTokenIssuer{}
}

func (randomTokenIssuer) Issue() (string, error) {
	buf := make([]byte, ApprovalTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidTokenFormat reports whether s could have been produced by the default issuer.
func ValidTokenFormat(s string) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(ApprovalTokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

// TokenIssuerFunc adapts a function to TokenIssuer.
type TokenIssuerFunc func() (string, error)

func (f TokenIssuerFunc) Issue() (string, error) { return f() }
