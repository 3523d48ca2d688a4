package ports

import "chem-datapackager/internal/types"

type MetricsPort interface {
	RecordIngested()
	RecordFailed()
	ConflictRetry(kind types.ConflictKind)
	MoleculeCreated()
	DepictionRendered()
}
