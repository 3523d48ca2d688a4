package ports

import (
	"context"

	"chem-datapackager/internal/types"
)

type DataPackageSourcePort interface {
	LoadFile(path string) ([]types.SourceRecord, error)
	LoadURL(ctx context.Context, url string) ([]types.SourceRecord, error)
}

type CIFSourcePort interface {
	ReadLines(path string) ([]string, error)
	FindCIFFiles(root string) ([]string, error)
}
