// Package slug builds URL-safe identifiers from display names.
package slug

import (
	"strings"

	gosimple "github.com/gosimple/slug"
	"github.com/google/uuid"
)

// Make transliterates s to ASCII, lower-cases it and joins words with "-".
func Make(s string) string {
	return gosimple.Make(s)
}

// Unique slugs s and appends a short random suffix, used where names may
// collide.
func Unique(s string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	base := Make(s)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
