package adapters

import (
	"chem-datapackager/internal/shared"
	"chem-datapackager/internal/types"
)

// Catalog validation messages that signal a collision. They are matched as
// substrings because the catalog wraps them in locale-specific text.
const (
	nameInUseMessage = "That URL is already in use."
	idExistsMessage  = "Dataset id already exists"
)

func newCatalogError(fields map[string][]string) *types.CatalogError {
	return &types.CatalogError{Kind: classifyCatalogFields(fields), Fields: fields}
}

func classifyCatalogFields(fields map[string][]string) types.ConflictKind {
	if shared.ContainsAny(fields["name"], nameInUseMessage) {
		return types.ConflictKindName
	}
	if shared.ContainsAny(fields["id"], idExistsMessage) {
		return types.ConflictKindID
	}
	for _, messages := range fields {
		if shared.ContainsAny(messages, nameInUseMessage) {
			return types.ConflictKindName
		}
		if shared.ContainsAny(messages, idExistsMessage) {
			return types.ConflictKindID
		}
	}
	return types.ConflictKindOther
}
