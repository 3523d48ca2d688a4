package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/core"
	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

type depictFunc func(ctx context.Context, record types.DatasetRecord) types.DepictionResult

// ingestPipeline runs one mapped record through reconcile, molecule sync,
// depiction and finalize. Only reconcile and finalize can fail the record.
type ingestPipeline struct {
	reconciler core.Reconciler
	molecules  *core.MoleculeSync
	metrics    ports.MetricsPort
}

func (s Service) newPipeline() ingestPipeline {
	pipeline := ingestPipeline{
		reconciler: s.reconciler(),
		metrics:    s.metrics(),
	}
	if s.Store != nil {
		sync := core.NewMoleculeSync(s.Store, s.Metrics)
		pipeline.molecules = &sync
	}
	return pipeline
}

func (p ingestPipeline) process(ctx context.Context, record types.DatasetRecord, depict depictFunc) (IngestedRecord, error) {
	record.State = types.DatasetStateDraft
	reconciled, err := p.reconciler.Reconcile(ctx, record)
	if err != nil {
		p.metrics.RecordFailed()
		return IngestedRecord{}, err
	}
	entry := IngestedRecord{
		Created:   reconciled.Created,
		Molecule:  types.SyncResult{Status: types.SyncStatusSkipped},
		Depiction: types.DepictionResult{Status: types.DepictionStatusSkipped},
	}
	if p.molecules != nil {
		entry.Molecule = p.molecules.Sync(ctx, reconciled.Record)
		p.molecules.RecordAlternateNames(ctx, reconciled.Record)
	}
	if depict != nil {
		entry.Depiction = depict(ctx, reconciled.Record)
	}
	final, err := p.reconciler.Finalize(ctx, reconciled.Record)
	if err != nil {
		p.metrics.RecordFailed()
		return IngestedRecord{}, err
	}
	entry.Record = final
	p.metrics.RecordIngested()
	log.Ctx(ctx).Info().
		Str("dataset", final.ID).
		Bool("created", entry.Created).
		Str("molecule", string(entry.Molecule.Status)).
		Str("depiction", string(entry.Depiction.Status)).
		Msg("dataset ingested")
	return entry, nil
}

func (s Service) metrics() ports.MetricsPort {
	if s.Metrics == nil {
		return core.NoopMetrics{}
	}
	return s.Metrics
}
