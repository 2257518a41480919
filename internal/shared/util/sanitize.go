package util

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey is returned for empty, absolute or traversing storage keys.
var ErrInvalidKey = errors.New("invalid storage key")

// CleanStorageKey normalizes a slash-separated object key and rejects
// traversal patterns.
func CleanStorageKey(key string) (string, error) {
	s := strings.TrimSpace(key)
	if s == "" || strings.Contains(s, "..") || strings.Contains(s, "\\") {
		return "", ErrInvalidKey
	}
	s = strings.TrimLeft(s, "/")
	s = path.Clean(s)
	if s == "." || s == "" || strings.HasPrefix(s, "/") {
		return "", ErrInvalidKey
	}
	return s, nil
}
