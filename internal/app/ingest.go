package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/core"
	"chem-datapackager/internal/types"
)

const missingSourceMsg = "you must define either a url or upload attribute"

// Ingest loads a data-package batch and runs every record through the
// pipeline. Records that fail are reported in Failures and skipped.
func (s Service) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	if err := s.requireIngest(); err != nil {
		return IngestResult{}, err
	}
	source, sources, err := s.loadDataPackages(ctx, req.Path, req.URL)
	if err != nil {
		return IngestResult{}, err
	}
	mapper := core.NewSchemaMapper(s.ExtrasMode)
	pipeline := s.newPipeline()
	var depict depictFunc
	if s.Renderer != nil {
		cache := s.depictionCache()
		depict = func(ctx context.Context, record types.DatasetRecord) types.DepictionResult {
			return cache.DepictInChI(ctx, record.InChI, record.InChIKey)
		}
	}

	var result IngestResult
	for index, raw := range sources {
		record, err := mapper.Map(ctx, raw)
		if err != nil {
			s.metrics().RecordFailed()
			result.Failures = append(result.Failures, s.recordFailure(ctx, source, index, "", err))
			continue
		}
		applyOverrides(&record, req.OwnerOrg, req.Private)
		entry, err := pipeline.process(ctx, record, depict)
		if err != nil {
			result.Failures = append(result.Failures, s.recordFailure(ctx, source, index, record.Name, err))
			continue
		}
		result.Records = append(result.Records, entry)
	}
	return result, s.writeReport(ctx, result)
}

func (s Service) loadDataPackages(ctx context.Context, path string, url string) (string, []types.SourceRecord, error) {
	path = strings.TrimSpace(path)
	url = strings.TrimSpace(url)
	if s.Packages == nil {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("data-package source is not configured")
	}
	switch {
	case path != "":
		records, err := s.Packages.LoadFile(path)
		return path, records, err
	case url != "":
		records, err := s.Packages.LoadURL(ctx, url)
		return url, records, err
	default:
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(missingSourceMsg)
	}
}

func applyOverrides(record *types.DatasetRecord, ownerOrg string, private *bool) {
	if org := strings.TrimSpace(ownerOrg); org != "" {
		record.OwnerOrg = org
	}
	if private != nil {
		record.Private = *private
	}
}

func (s Service) recordFailure(ctx context.Context, source string, index int, name string, err error) IngestFailure {
	log.Ctx(ctx).Error().Err(err).
		Str("source", source).
		Int("index", index).
		Str("name", name).
		Msg("source record not ingested")
	return IngestFailure{Source: source, Index: index, Name: name, Err: err}
}

// writeReport persists the run summary when a report directory is set.
func (s Service) writeReport(ctx context.Context, result IngestResult) error {
	if s.Reports == nil {
		return nil
	}
	if err := s.Reports.WriteIngestReport(result.Report()); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().
		Int("ingested", len(result.Records)).
		Int("failed", len(result.Failures)).
		Msg("ingest report written")
	return nil
}
