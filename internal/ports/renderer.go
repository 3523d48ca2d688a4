package ports

import (
	"context"

	"chem-datapackager/internal/types"
)

type RendererPort interface {
	Render(ctx context.Context, request types.DepictionRequest) ([]byte, error)
}
