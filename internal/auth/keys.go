// Package auth contains API key generation and hashing.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewAPIKey generates a fresh tenant API key. The raw key is shown to
// the caller exactly once; only its hash is persisted.
func NewAPIKey() string {
	return fmt.Sprintf("tp_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// HashKey returns a SHA-256 hash of the key.
func HashKey(key string) string {
	key = strings.TrimSpace(key)

	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
