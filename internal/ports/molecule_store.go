package ports

import (
	"context"

	"chem-datapackager/internal/types"
)

// MoleculeStorePort persists molecule identities keyed by InChIKey and the
// links tying them to datasets.
type MoleculeStorePort interface {
	LookupByKey(ctx context.Context, inchiKey string) (types.MoleculeIdentity, bool, error)
	// EnsureMolecule inserts the identity unless one with the same key
	// exists, and returns the stored row either way. The bool reports
	// whether this call created it.
	EnsureMolecule(ctx context.Context, molecule types.MoleculeIdentity) (types.MoleculeIdentity, bool, error)
	LinkExists(ctx context.Context, moleculeID int64, datasetID string) (bool, error)
	Link(ctx context.Context, moleculeID int64, datasetID string) error
	DeleteLinks(ctx context.Context, datasetID string) (int64, error)
	// AddRelatedResource records an alternate name for a dataset; adding
	// the same pair twice is a no-op.
	AddRelatedResource(ctx context.Context, datasetID string, alternateName string) error
	DeleteRelatedResources(ctx context.Context, datasetID string) (int64, error)
}
