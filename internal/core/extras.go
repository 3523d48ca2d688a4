package core

import "chem-datapackager/internal/types"

// DedupeExtras clears the whole extras list as soon as one extras key
// shadows a top-level field.
func DedupeExtras(record types.DatasetRecord) types.DatasetRecord {
	for _, extra := range record.Extras {
		if IsTopLevelKey(extra.Key) {
			record.Extras = []types.Extra{}
			return record
		}
	}
	return record
}
