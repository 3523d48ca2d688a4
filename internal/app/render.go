package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/types"
)

func (s Service) Render(ctx context.Context, req RenderRequest) (types.DepictionResult, error) {
	key := strings.TrimSpace(req.InChIKey)
	if key == "" {
		return types.DepictionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("inchi key is required")
	}
	if s.Renderer == nil {
		return types.DepictionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("renderer is not configured")
	}
	result := s.depictionCache().DepictInChI(ctx, strings.TrimSpace(req.InChI), key)
	switch result.Status {
	case types.DepictionStatusFailed:
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("depiction failed").
			WithCause(result.Err)
	case types.DepictionStatusSkipped:
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("inchi is not a standard InChI string")
	}
	return result, nil
}
