package core

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/types"
)

// MapCIF turns a parsed CIF document into a dataset record. Structure
// identifiers stay empty; CIF files carry atom sites, not InChI.
func MapCIF(doc types.CIFDocument) (types.DatasetRecord, error) {
	if cifUnset(doc.Identifier) {
		return types.DatasetRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cif document has no data_ block identifier")
	}
	record := types.DatasetRecord{
		Identifier: doc.Identifier,
		Name:       strings.ToLower(doc.Identifier),
		MolFormula: missingFormula,
	}
	switch {
	case !cifUnset(doc.CitationTitle):
		record.Title = doc.CitationTitle
		record.Notes = doc.CitationTitle
	case !cifUnset(doc.MoleculeName):
		record.Title = doc.MoleculeName
	default:
		record.Title = doc.Identifier
	}
	if !cifUnset(doc.MolFormula) {
		record.MolFormula = doc.MolFormula
	}
	if !cifUnset(doc.MoleculeName) {
		record.AlternateNames = []string{doc.MoleculeName}
	}
	if len(doc.Authors) > 0 {
		record.Author = strings.Join(doc.Authors, ", ")
	}
	keys := make([]string, 0, len(doc.Extras))
	for key := range doc.Extras {
		keys = append(keys, key)
	}
	// Byte order, so space_group_IT_number precedes space_group_name_H-M.
	sort.Strings(keys)
	for _, key := range keys {
		record.Extras = append(record.Extras, types.Extra{Key: key, Value: doc.Extras[key]})
	}
	return record, nil
}

func cifUnset(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || trimmed == types.CIFFieldUnset
}
