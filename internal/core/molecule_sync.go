package core

import (
	"context"

	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

// MoleculeSync keeps the molecule store in step with the catalog. It is
// best-effort: store failures are logged and reported in the result, never
// returned.
type MoleculeSync struct {
	Store   ports.MoleculeStorePort
	Metrics ports.MetricsPort
}

func NewMoleculeSync(store ports.MoleculeStorePort, metrics ports.MetricsPort) MoleculeSync {
	return MoleculeSync{Store: store, Metrics: metricsOrNoop(metrics)}
}

func (s MoleculeSync) Sync(ctx context.Context, record types.DatasetRecord) types.SyncResult {
	if record.InChIKey == "" || record.ID == "" {
		return types.SyncResult{Status: types.SyncStatusSkipped}
	}
	logger := log.Ctx(ctx).With().Str("dataset", record.ID).Str("inchi_key", record.InChIKey).Logger()

	molecule, found, err := s.Store.LookupByKey(ctx, record.InChIKey)
	if err != nil {
		logger.Error().Err(err).Msg("molecule lookup failed")
		return types.SyncResult{Status: types.SyncStatusFailed, Err: err}
	}
	if !found {
		created, inserted, err := s.Store.EnsureMolecule(ctx, types.MoleculeIdentity{
			InChI:      record.InChI,
			Smiles:     record.Smiles,
			InChIKey:   record.InChIKey,
			ExactMass:  record.ExactMass,
			MolFormula: record.MolFormula,
		})
		if err != nil {
			logger.Error().Err(err).Msg("molecule create failed")
			return types.SyncResult{Status: types.SyncStatusFailed, Err: err}
		}
		if inserted {
			metricsOrNoop(s.Metrics).MoleculeCreated()
		}
		if err := s.Store.Link(ctx, created.ID, record.ID); err != nil {
			logger.Error().Err(err).Int64("molecule", created.ID).Msg("molecule link failed")
			return types.SyncResult{Status: types.SyncStatusFailed, MoleculeID: created.ID, Err: err}
		}
		logger.Debug().Int64("molecule", created.ID).Msg("molecule created and linked")
		return types.SyncResult{Status: types.SyncStatusCreated, MoleculeID: created.ID}
	}

	// A molecule without a link to this dataset is either shared with
	// another dataset or left over from an interrupted sync.
	linked, err := s.Store.LinkExists(ctx, molecule.ID, record.ID)
	if err != nil {
		logger.Error().Err(err).Msg("molecule link lookup failed")
		return types.SyncResult{Status: types.SyncStatusFailed, MoleculeID: molecule.ID, Err: err}
	}
	if linked {
		return types.SyncResult{Status: types.SyncStatusUnchanged, MoleculeID: molecule.ID}
	}
	if err := s.Store.Link(ctx, molecule.ID, record.ID); err != nil {
		logger.Error().Err(err).Int64("molecule", molecule.ID).Msg("molecule link failed")
		return types.SyncResult{Status: types.SyncStatusFailed, MoleculeID: molecule.ID, Err: err}
	}
	logger.Debug().Int64("molecule", molecule.ID).Msg("molecule linked")
	return types.SyncResult{Status: types.SyncStatusLinked, MoleculeID: molecule.ID}
}

// RecordAlternateNames stores the dataset's alternate names as related
// resources. Failures are logged and counted, never returned.
func (s MoleculeSync) RecordAlternateNames(ctx context.Context, record types.DatasetRecord) int {
	failed := 0
	for _, name := range record.AlternateNames {
		if name == "" {
			continue
		}
		if err := s.Store.AddRelatedResource(ctx, record.ID, name); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("dataset", record.ID).Str("alternate_name", name).Msg("related resource not recorded")
			failed++
		}
	}
	return failed
}
