package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/goliatone/go-marketplace/core"
)

// HMACSigner produces the lowercase hex HMAC-SHA256 digest of a payload
// under a shared secret. The same signer verifies inbound signatures on
// the receiving side.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (s *HMACSigner) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares a presented hex digest against the expected signature
// for payload in constant time.
func (s *HMACSigner) Verify(payload []byte, signature string) bool {
	expected := s.Sign(payload)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

var _ core.PayloadSigner = (*HMACSigner)(nil)
