package app

import (
	"context"

	"chem-datapackager/internal/core"
)

// Map loads and maps sources without contacting the catalog or the
// molecule store.
func (s Service) Map(ctx context.Context, req MapRequest) (MapResult, error) {
	if req.CIF {
		return s.mapCIF(ctx, req.Path)
	}
	source, sources, err := s.loadDataPackages(ctx, req.Path, req.URL)
	if err != nil {
		return MapResult{}, err
	}
	mapper := core.NewSchemaMapper(s.ExtrasMode)
	var result MapResult
	for index, raw := range sources {
		record, err := mapper.Map(ctx, raw)
		if err != nil {
			result.Failures = append(result.Failures, s.recordFailure(ctx, source, index, "", err))
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

func (s Service) mapCIF(ctx context.Context, path string) (MapResult, error) {
	files, err := s.findCIFFiles([]string{path})
	if err != nil {
		return MapResult{}, err
	}
	var result MapResult
	for _, file := range files {
		_, record, err := s.loadCIF(file)
		if err != nil {
			result.Failures = append(result.Failures, s.recordFailure(ctx, file, 0, "", err))
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}
