package models

import (
	"strings"

	"github.com/google/uuid"
)

// newID: идентификатор вида "<prefix>_<12 hex>".
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
