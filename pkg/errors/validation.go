package errors

import (
	"strings"
	"unicode"
)

// maxIdentifierLength bounds artifact, member, slot and connection ids.
const maxIdentifierLength = 512

// ValidateIdentifier validates an identifier taken from a definitions
// document (artifactId, memberId, slotId, connectionId).
//
// The rules are conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 512 characters
//
// kind names the identifier in the returned message (e.g. "memberId").
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidDefinitions, "%s cannot be empty", kind)
	}

	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidDefinitions, "%s too long (max %d characters)", kind, maxIdentifierLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDefinitions, "%s %q contains invalid control characters", kind, id)
		}
	}

	return nil
}

// ValidatePath validates a definitions file path supplied on the command
// line or through the API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
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

// ValidateExportFilename checks that a suggested export filename is a
// plain basename.
func ValidateExportFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "export filename cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "export filename cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "export filename cannot be a hidden file")
	}
	return nil
}
