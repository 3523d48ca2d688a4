package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

const inaccessibleResourceMsg = "Couldn't create some of the resources. Please make sure that all resources' files are accessible."

func (r Reconciler) createResources(ctx context.Context, datasetID string, resources []types.Resource) ([]types.Resource, error) {
	created := make([]types.Resource, 0, len(resources))
	for _, resource := range resources {
		resource.PackageID = datasetID
		var (
			result types.Resource
			err    error
		)
		switch resource.Kind() {
		case types.ResourceKindInline:
			result, err = r.createInlineResource(ctx, datasetID, resource)
		case types.ResourceKindLocal:
			result, err = r.createLocalResource(ctx, datasetID, resource)
		default:
			result, err = r.Resources.CreateResource(ctx, datasetID, resource, nil)
		}
		if err != nil {
			return nil, err
		}
		log.Ctx(ctx).Debug().
			Str("dataset", datasetID).
			Str("resource", result.Name).
			Str("kind", string(resource.Kind())).
			Msg("resource created")
		created = append(created, result)
	}
	return created, nil
}

// createInlineResource spools inline data to a temporary file for the
// upload. The file is removed on every return path.
func (r Reconciler) createInlineResource(ctx context.Context, datasetID string, resource types.Resource) (types.Resource, error) {
	prefix := MungeName(resource.Name)
	file, err := os.CreateTemp(r.TempDir, prefix+"-*")
	if err != nil {
		return types.Resource{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temporary resource file").
			WithCause(err)
	}
	defer func() {
		_ = file.Close()
		_ = os.Remove(file.Name())
	}()
	if _, err := io.WriteString(file, resource.Data); err != nil {
		return types.Resource{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write temporary resource file").
			WithCause(err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return types.Resource{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to rewind temporary resource file").
			WithCause(err)
	}
	resource.Data = ""
	resource.URLType = "upload"
	return r.Resources.CreateResource(ctx, datasetID, resource, &ports.Upload{
		Filename: filepath.Base(file.Name()),
		Body:     file,
	})
}

func (r Reconciler) createLocalResource(ctx context.Context, datasetID string, resource types.Resource) (types.Resource, error) {
	path := resource.Path
	file, err := os.Open(path)
	if err != nil {
		return types.Resource{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(inaccessibleResourceMsg).
			WithCause(fmt.Errorf("open %s: %w", path, err))
	}
	defer file.Close()
	resource.Path = ""
	resource.URLType = "upload"
	return r.Resources.CreateResource(ctx, datasetID, resource, &ports.Upload{
		Filename: filepath.Base(path),
		Body:     file,
	})
}
