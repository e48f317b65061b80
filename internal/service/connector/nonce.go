package connector

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

// secureRandomString returns size random bytes, base64url-encoded without
// padding. Collisions are cryptographically negligible and not handled.
func secureRandomString(size int) (string, error) {
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newStateNonce produces the anti-forgery nonce: 32 bytes of entropy.
func newStateNonce() (string, error) {
	return secureRandomString(32)
}

// newPKCEPair generates a PKCE verifier and its S256 challenge per RFC 7636:
// challenge = base64url(sha256(verifier)), padding stripped.
func newPKCEPair() (verifier, challenge string, err error) {
	verifier, err = secureRandomString(64)
	if err != nil {
		return "", "", err
	}
	return verifier, pkceChallenge(verifier), nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// statePayload is the structure round-tripped through the provider redirect.
// Embedding the principal lets the callback recover its (provider, org, user)
// key without a session; authenticity still rests entirely on the nonce
// matching the stored copy.
type statePayload struct {
	Nonce  string `json:"state"`
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

func encodeState(p statePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decodeState parses the callback state parameter. Any malformed value is a
// state mismatch, never a server fault.
func decodeState(s string) (statePayload, error) {
	var p statePayload
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return p, connector.ErrStateMismatch
	}
	raw, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return p, connector.ErrStateMismatch
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, connector.ErrStateMismatch
	}
	if p.Nonce == "" || p.UserID == "" || p.OrgID == "" {
		return p, connector.ErrStateMismatch
	}
	return p, nil
}
