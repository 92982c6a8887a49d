package fingerprint

import (
	"fmt"
	"strings"
)

// Compare reports an error when actual does not match the expected hash.
// expected may be a prefix of the full hash, as printed by Short.
func Compare(expected string, actual *SchemaFingerprint) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected != "" && strings.HasPrefix(actual.Hash, expected) {
		return nil
	}

	expectedPreview := expected
	if len(expectedPreview) > 16 {
		expectedPreview = expectedPreview[:16]
	}

	return fmt.Errorf("schema fingerprint mismatch - expected: %s, actual: %s",
		expectedPreview, actual.Short())
}
