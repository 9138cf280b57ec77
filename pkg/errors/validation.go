package errors

import (
	"path"
	"strings"
	"unicode"
)

// Limits on client-supplied values.
const (
	MaxHashLength = 256
	MaxPathLength = 500
)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateHash checks a commit hash received from a client. Hashes are
// opaque to the graph but end up in the text log format, so they must not
// contain whitespace or the "|-" and "," separators of that format.
func ValidateHash(h string) error {
	switch {
	case h == "":
		return New(ErrCodeInvalidRecord, "hash cannot be empty")
	case len(h) > MaxHashLength:
		return New(ErrCodeInvalidRecord, "hash too long (max %d characters)", MaxHashLength)
	case hasControl(h) || strings.IndexFunc(h, unicode.IsSpace) >= 0:
		return New(ErrCodeInvalidRecord, "hash contains invalid characters: %q", h)
	case strings.Contains(h, "|-") || strings.ContainsRune(h, ','):
		return New(ErrCodeInvalidRecord, "hash contains a separator: %q", h)
	}
	return nil
}

// ValidatePath checks a repository path that a client asks the server to
// open below its repository root. The path must stay inside the root: it is
// slash-separated, relative, and has no ".." element.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(p) > MaxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", MaxPathLength)
	case hasControl(p):
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	case strings.ContainsRune(p, '\\'):
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	case path.IsAbs(p):
		return New(ErrCodeInvalidPath, "path must be relative to the repository root")
	}
	for _, elem := range strings.Split(p, "/") {
		if elem == ".." {
			return New(ErrCodeInvalidPath, "path cannot leave the repository root")
		}
	}
	return nil
}

// ValidateLimit checks a requested block size against max. A zero n asks for
// everything and a zero max imposes no bound.
func ValidateLimit(n, max int) error {
	if n < 0 {
		return New(ErrCodeInvalidInput, "limit cannot be negative: %d", n)
	}
	if max > 0 && n > max {
		return New(ErrCodeInvalidInput, "limit %d exceeds maximum %d", n, max)
	}
	return nil
}
