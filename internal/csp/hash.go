package csp

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/maypok86/otter/v2"
)

// HashSource returns the CSP hash-source token for content, in the form
// 'sha256-<base64 digest>'. The digest covers the exact bytes of content,
// the same way a browser hashes an inline script or style block.
func HashSource(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
}

// Hasher turns inline content into a hash-source token.
type Hasher interface {
	Hash(content string) string
}

// SHA256Hasher computes tokens with HashSource.
type SHA256Hasher struct{}

// Hash implements Hasher.
func (SHA256Hasher) Hash(content string) string {
	return HashSource(content)
}

// CachedHasher memoizes hash-source tokens. Static sites repeat the same
// inline scripts and generated style blocks on every page, so a build that
// shares one CachedHasher across its workers hashes each block once.
// It is safe for concurrent use.
type CachedHasher struct {
	cache *otter.Cache[string, string]
}

// NewCachedHasher creates a hasher holding at most size tokens.
func NewCachedHasher(size int) *CachedHasher {
	if size <= 0 {
		size = 10_000
	}
	return &CachedHasher{
		cache: otter.Must(&otter.Options[string, string]{
			MaximumSize: size,
		}),
	}
}

// Hash implements Hasher.
func (h *CachedHasher) Hash(content string) string {
	if token, ok := h.cache.GetIfPresent(content); ok {
		return token
	}
	token := HashSource(content)
	h.cache.Set(content, token)
	return token
}

// Len reports the approximate number of cached tokens.
func (h *CachedHasher) Len() int {
	return h.cache.EstimatedSize()
}
