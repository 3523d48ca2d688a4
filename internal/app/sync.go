package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/core"
	"chem-datapackager/internal/types"
)

// SyncMolecules re-runs molecule identity sync for a dataset already in the
// catalog, repairing a missing link or identity row.
func (s Service) SyncMolecules(ctx context.Context, req SyncRequest) (SyncResult, error) {
	id := strings.TrimSpace(req.DatasetID)
	if id == "" {
		return SyncResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dataset id is required")
	}
	if err := s.requireCatalog(); err != nil {
		return SyncResult{}, err
	}
	if err := s.requireStore(); err != nil {
		return SyncResult{}, err
	}
	record, err := s.Catalog.ShowDataset(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	molecules := core.NewMoleculeSync(s.Store, s.Metrics)
	result := SyncResult{DatasetID: record.ID, Molecule: molecules.Sync(ctx, record)}
	result.RelatedFailures = molecules.RecordAlternateNames(ctx, record)
	if result.Molecule.Status == types.SyncStatusFailed {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("molecule sync failed for dataset " + record.ID).
			WithCause(result.Molecule.Err)
	}
	return result, nil
}
