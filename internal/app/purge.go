package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Purge permanently removes a dataset. Side rows referencing it go first so
// the store never points at a purged dataset.
func (s Service) Purge(ctx context.Context, req PurgeRequest) (PurgeResult, error) {
	id := strings.TrimSpace(req.DatasetID)
	if id == "" {
		return PurgeResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dataset id is required")
	}
	if err := s.requireCatalog(); err != nil {
		return PurgeResult{}, err
	}
	if err := s.requireStore(); err != nil {
		return PurgeResult{}, err
	}
	admin, err := s.Catalog.IsSysadmin(ctx, strings.TrimSpace(req.Actor))
	if err != nil {
		return PurgeResult{}, err
	}
	if !admin {
		return PurgeResult{}, errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("only sysadmin can purge datasets")
	}
	if _, err := s.Catalog.ShowDataset(ctx, id); err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return PurgeResult{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("dataset not found").
				WithCause(err)
		}
		return PurgeResult{}, err
	}

	result := PurgeResult{DatasetID: id}
	if result.LinksDeleted, err = s.Store.DeleteLinks(ctx, id); err != nil {
		return result, err
	}
	if result.RelatedDeleted, err = s.Store.DeleteRelatedResources(ctx, id); err != nil {
		return result, err
	}
	if err := s.Catalog.PurgeDataset(ctx, id); err != nil {
		return result, err
	}
	log.Ctx(ctx).Info().
		Str("dataset", id).
		Str("actor", req.Actor).
		Int64("links", result.LinksDeleted).
		Int64("related", result.RelatedDeleted).
		Msg("dataset purged")
	return result, nil
}
