package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Keyer produces cache keys for every kind of cached value.
type Keyer interface {
	// HTTPKey is the key of a raw catalog response.
	HTTPKey(namespace, key string) string

	// CardKey is the key of resolved card metadata. Set and number take
	// precedence over name when both are given.
	CardKey(set, number, name string) string

	// ImageKey is the key of downloaded image bytes.
	ImageKey(url string) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// CardKey hashes the lookup so that names with spaces or punctuation are
// safe in any backend.
func (DefaultKeyer) CardKey(set, number, name string) string {
	set = strings.ToLower(strings.TrimSpace(set))
	number = strings.TrimSpace(number)
	if set != "" && number != "" {
		return hashKey("card", set, number)
	}
	return hashKey("card", strings.ToLower(strings.TrimSpace(name)))
}

// ImageKey hashes the image URL.
func (DefaultKeyer) ImageKey(url string) string {
	return hashKey("image", url)
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<prefix>:<sha256 of parts>". Parts are separated by a
// unit separator so ("ab", "c") and ("a", "bc") differ.
func hashKey(prefix string, parts ...string) string {
	return prefix + ":" + Hash([]byte(strings.Join(parts, "\x1f")))
}
