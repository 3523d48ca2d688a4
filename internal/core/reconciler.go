package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/policies"
	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

type ReconcileResult struct {
	Record  types.DatasetRecord
	Created bool
}

// Reconciler decides whether an incoming record updates an existing
// dataset or creates a new one, and attaches its resources.
type Reconciler struct {
	Catalog   ports.CatalogPort
	Resources ports.ResourcePort
	Resolver  IdentityResolver
	Names     policies.NamePolicy
	Metrics   ports.MetricsPort
	// TempDir holds inline resource bodies while they upload. Empty means
	// the system temp directory.
	TempDir string
}

func NewReconciler(catalog ports.CatalogPort, resources ports.ResourcePort, metrics ports.MetricsPort) Reconciler {
	return Reconciler{
		Catalog:   catalog,
		Resources: resources,
		Resolver:  NewIdentityResolver(catalog),
		Names:     policies.NewNamePolicy(),
		Metrics:   metricsOrNoop(metrics),
	}
}

func (r Reconciler) Reconcile(ctx context.Context, incoming types.DatasetRecord) (ReconcileResult, error) {
	incoming, err := PrepareIdentity(incoming)
	if err != nil {
		return ReconcileResult{}, err
	}
	var result ReconcileResult
	verdict, existing := r.Resolver.Resolve(ctx, incoming)
	if verdict == types.VerdictExists {
		record, err := r.reconcileExisting(ctx, existing, incoming)
		if err != nil {
			return ReconcileResult{}, err
		}
		result = ReconcileResult{Record: record}
	} else {
		record, err := r.createWithRetry(ctx, incoming)
		if err != nil {
			return ReconcileResult{}, err
		}
		result = ReconcileResult{Record: record, Created: true}
	}

	// Resources belong to the dataset that was created here; an existing
	// dataset keeps the resources it already has.
	if result.Created && len(incoming.Resources) > 0 && len(result.Record.Resources) == 0 {
		created, err := r.createResources(ctx, result.Record.ID, incoming.Resources)
		if err != nil {
			return ReconcileResult{}, r.compensate(ctx, result.Record.ID, err)
		}
		result.Record.Resources = created
	}
	return result, nil
}

// reconcileExisting backfills license and formula on a dataset that is
// already in the catalog. A dataset that has both is returned untouched.
func (r Reconciler) reconcileExisting(ctx context.Context, existing types.DatasetRecord, incoming types.DatasetRecord) (types.DatasetRecord, error) {
	changed := false
	if existing.LicenseID == "" && incoming.License != "" {
		if licenseID := r.lookupLicense(ctx, incoming.License); licenseID != "" {
			existing.LicenseID = licenseID
			changed = true
		}
	}
	if existing.MolFormula == "" && incoming.MolFormula != "" {
		existing.MolFormula = incoming.MolFormula
		changed = true
	}
	if !changed {
		log.Ctx(ctx).Info().Str("dataset", existing.ID).Msg("dataset exists and is skipped")
		return existing, nil
	}
	updated, err := r.Catalog.UpdateDataset(ctx, existing)
	if err != nil {
		return types.DatasetRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to backfill dataset %s", existing.ID)).
			WithCause(err)
	}
	log.Ctx(ctx).Info().Str("dataset", existing.ID).Msg("dataset backfilled")
	return updated, nil
}

// createWithRetry creates the dataset, retrying exactly once with a
// suffixed name or id when the catalog reports a collision.
func (r Reconciler) createWithRetry(ctx context.Context, incoming types.DatasetRecord) (types.DatasetRecord, error) {
	draft := incoming
	draft.Resources = nil
	if draft.State == "" {
		draft.State = types.DatasetStateDraft
	}
	created, err := r.Catalog.CreateDataset(ctx, draft)
	if err != nil {
		var catalogErr *types.CatalogError
		if !errors.As(err, &catalogErr) {
			return types.DatasetRecord{}, err
		}
		switch catalogErr.Kind {
		case types.ConflictKindName:
			draft.Name = r.Names.WithSuffix(draft.Name)
		case types.ConflictKindID:
			draft.ID = r.Names.WithSuffix(draft.ID)
		default:
			return types.DatasetRecord{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("catalog rejected dataset %s", draft.ID)).
				WithCause(err)
		}
		metricsOrNoop(r.Metrics).ConflictRetry(catalogErr.Kind)
		log.Ctx(ctx).Debug().
			Str("conflict", string(catalogErr.Kind)).
			Str("name", draft.Name).
			Str("id", draft.ID).
			Msg("retrying dataset create after conflict")
		created, err = r.Catalog.CreateDataset(ctx, draft)
		if err != nil {
			return types.DatasetRecord{}, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("dataset create failed after conflict retry: %s", draft.ID)).
				WithCause(err)
		}
	}
	if incoming.License != "" {
		if licenseID := r.lookupLicense(ctx, incoming.License); licenseID != "" {
			created.LicenseID = licenseID
		}
	}
	log.Ctx(ctx).Debug().Str("dataset", created.ID).Str("name", created.Name).Msg("dataset created")
	return created, nil
}

// lookupLicense matches a license by id, url or title; first match wins.
func (r Reconciler) lookupLicense(ctx context.Context, license string) string {
	licenses, err := r.Catalog.ListLicenses(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("license list unavailable")
		return ""
	}
	for _, candidate := range licenses {
		if license == candidate.ID || license == candidate.URL || license == candidate.Title {
			return candidate.ID
		}
	}
	return ""
}

// compensate deletes a dataset whose resources could not be created. A
// failed delete is reported together with the original error.
func (r Reconciler) compensate(ctx context.Context, datasetID string, cause error) error {
	if err := r.Catalog.DeleteDataset(ctx, datasetID); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("dataset", datasetID).Msg("compensating delete failed")
		return errors.Join(cause, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to delete dataset %s after resource failure", datasetID)).
			WithCause(err))
	}
	log.Ctx(ctx).Warn().Str("dataset", datasetID).Msg("dataset deleted after resource failure")
	return cause
}

// Finalize activates a reconciled dataset and persists it.
func (r Reconciler) Finalize(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error) {
	record = DedupeExtras(record)
	record.State = types.DatasetStateActive
	updated, err := r.Catalog.UpdateDataset(ctx, record)
	if err != nil {
		return types.DatasetRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to activate dataset %s", record.ID)).
			WithCause(err)
	}
	return DedupeExtras(updated), nil
}
