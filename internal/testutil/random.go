package testutil

import (
	"strings"

	"github.com/google/uuid"
)

// RandomEmail returns an address no other test will use.
func RandomEmail(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "@example.com"
}

// RandomName returns a display name unique enough to search for, within the
// 50 character limit on names.
func RandomName(prefix string) string {
	return prefix + " " + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
