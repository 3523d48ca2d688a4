package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/core"
	"chem-datapackager/internal/types"
)

// IngestCIF ingests one dataset per CIF file. Paths may name files or
// directories to search.
func (s Service) IngestCIF(ctx context.Context, req IngestCIFRequest) (IngestResult, error) {
	if err := s.requireIngest(); err != nil {
		return IngestResult{}, err
	}
	files, err := s.findCIFFiles(req.Paths)
	if err != nil {
		return IngestResult{}, err
	}
	pipeline := s.newPipeline()
	cache := s.depictionCache()

	var result IngestResult
	for _, file := range files {
		lines, record, err := s.loadCIF(file)
		if err != nil {
			s.metrics().RecordFailed()
			result.Failures = append(result.Failures, s.recordFailure(ctx, file, 0, "", err))
			continue
		}
		applyOverrides(&record, req.OwnerOrg, req.Private)
		var depict depictFunc
		if s.Renderer != nil {
			text := strings.Join(lines, "\n")
			depict = func(ctx context.Context, record types.DatasetRecord) types.DepictionResult {
				return cache.DepictCIF(ctx, text, record.ID)
			}
		}
		entry, err := pipeline.process(ctx, record, depict)
		if err != nil {
			result.Failures = append(result.Failures, s.recordFailure(ctx, file, 0, record.Name, err))
			continue
		}
		result.Records = append(result.Records, entry)
	}
	return result, s.writeReport(ctx, result)
}

func (s Service) findCIFFiles(paths []string) ([]string, error) {
	if s.CIFs == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("cif source is not configured")
	}
	var files []string
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		found, err := s.CIFs.FindCIFFiles(path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no cif files found")
	}
	return files, nil
}

func (s Service) loadCIF(path string) ([]string, types.DatasetRecord, error) {
	lines, err := s.CIFs.ReadLines(path)
	if err != nil {
		return nil, types.DatasetRecord{}, err
	}
	record, err := core.MapCIF(core.ParseCIF(lines))
	if err != nil {
		return nil, types.DatasetRecord{}, err
	}
	return lines, record, nil
}
