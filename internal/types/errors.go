package types

import (
	"fmt"
	"sort"
	"strings"
)

// CatalogError is a validation failure reported by the catalog service.
// Fields maps a record field to the messages the catalog returned for it.
type CatalogError struct {
	Kind   ConflictKind
	Fields map[string][]string
}

func (e *CatalogError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], "; ")))
	}
	return fmt.Sprintf("catalog validation failed (%s): %s", e.Kind, strings.Join(parts, ", "))
}
