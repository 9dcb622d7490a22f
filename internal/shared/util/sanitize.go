package util

import (
	"errors"
	"strings"
)

// SanitizeFileName makes a transcript file name safe to embed in an
// object-store key: path separators collapse to underscores and
// traversal patterns are rejected outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
