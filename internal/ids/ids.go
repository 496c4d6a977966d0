// Package ids generates prefixed entity identifiers like pat_1a2b3c4d5e6f.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// New returns an id of the form "<prefix>_<12 hex chars>".
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:12]
}

// Token returns an opaque credential of the form "<prefix>_<32 hex chars>".
func Token(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
