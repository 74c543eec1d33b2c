package errors

import (
	"strings"
	"unicode"
)

// ValidateSpaceKey validates a Confluence space key. Keys are short
// alphanumeric identifiers; anything else is rejected before it reaches a
// request URL.
func ValidateSpaceKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidSpaceKey, "space key cannot be empty")
	}
	if len(key) > 255 {
		return New(ErrCodeInvalidSpaceKey, "space key too long (max 255 characters)")
	}
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '~' && r != '-' && r != '_' {
			return New(ErrCodeInvalidSpaceKey, "space key contains invalid character %q", r)
		}
	}
	return nil
}

// ValidatePageID validates a Confluence content ID, which is always numeric.
func ValidatePageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPageID, "page ID cannot be empty")
	}
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return New(ErrCodeInvalidPageID, "page ID must be numeric: %q", id)
		}
	}
	return nil
}

// ValidatePath validates a file path for safety before it is joined under an
// output directory. It prevents path traversal and ensures reasonable length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateAttachmentFilename validates an attachment filename before it is
// used as part of a download path or upload form. It must be a simple
// basename without path components.
func ValidateAttachmentFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "attachment filename cannot be empty")
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "attachment filename cannot contain path separators")
	}
	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidInput, "attachment filename cannot be a hidden file")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
