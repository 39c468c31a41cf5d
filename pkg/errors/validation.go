package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateCardName validates a card name taken from a decklist or API request.
//
// The rules are intentionally loose (card names contain commas, apostrophes,
// slashes for split cards and non-ASCII letters):
//   - No empty names
//   - No control characters
//   - Maximum length of 200 characters
func ValidateCardName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidDeck, "card name cannot be empty")
	}

	if len(name) > 200 {
		return New(ErrCodeInvalidDeck, "card name too long (max 200 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDeck, "card name contains invalid control characters")
		}
	}

	return nil
}

// setCodeRegex matches catalog set codes ("m10", "2xm", "plst").
var setCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{2,6}$`)

// ValidateSetCode validates a set code. An empty code is valid and means
// "any printing".
func ValidateSetCode(set string) error {
	if set == "" {
		return nil
	}
	if !setCodeRegex.MatchString(set) {
		return New(ErrCodeInvalidDeck, "invalid set code: %q", set)
	}
	return nil
}

// collectorNumberRegex matches collector numbers such as "146", "12a", "★7" or "2022-3".
var collectorNumberRegex = regexp.MustCompile(`^[\p{L}\p{N}★†\-]{1,12}$`)

// ValidateCollectorNumber validates a collector number. An empty number is valid.
func ValidateCollectorNumber(number string) error {
	if number == "" {
		return nil
	}
	if !collectorNumberRegex.MatchString(number) {
		return New(ErrCodeInvalidDeck, "invalid collector number: %q", number)
	}
	return nil
}

// ValidatePath validates a local image path referenced by a deck file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//
// Absolute paths are allowed: deck files routinely point at scans elsewhere
// on disk. Use [ValidateRelativePath] for paths received over the network.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateRelativePath validates a path that must stay inside a base directory.
//
// Validation rules (in addition to [ValidatePath]):
//   - No absolute paths
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateRelativePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
