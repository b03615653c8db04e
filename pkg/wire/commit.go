package wire

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CommitHash computes the digest an agent publishes during the commit
// phase: hex SHA-256 over the canonical JSON of its action list with
// the nonce appended. The nonce keeps a listed commit from being
// dictionary-matched against the small space of plausible action lists.
func CommitHash(actions any, nonce string) (string, error) {
	c, err := Canonical(actions)
	if err != nil {
		return "", err
	}
	return digest(c, nonce), nil
}

// VerifyReveal recomputes the commit digest from revealed raw action
// JSON and nonce, and reports whether it matches the earlier commit.
func VerifyReveal(commit string, actions json.RawMessage, nonce string) (bool, error) {
	c, err := CanonicalRaw(actions)
	if err != nil {
		return false, fmt.Errorf("wire: canonicalizing revealed actions: %w", err)
	}
	return digest(c, nonce) == commit, nil
}

func digest(canonical []byte, nonce string) string {
	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte(nonce))
	return hex.EncodeToString(h.Sum(nil))
}

// NewNonce returns 8 random bytes hex-encoded, the 16-character nonce
// format agents attach to commits.
func NewNonce() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("wire: reading random nonce: %v", err))
	}
	return hex.EncodeToString(b[:])
}
