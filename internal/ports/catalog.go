package ports

import (
	"context"
	"io"

	"chem-datapackager/internal/types"
)

// CatalogPort is the dataset catalog. Create and Update report validation
// failures as *types.CatalogError; ShowDataset reports a missing dataset
// with errbuilder.CodeNotFound.
type CatalogPort interface {
	CreateDataset(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error)
	ShowDataset(ctx context.Context, id string) (types.DatasetRecord, error)
	UpdateDataset(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error)
	DeleteDataset(ctx context.Context, id string) error
	PurgeDataset(ctx context.Context, id string) error
	ListLicenses(ctx context.Context) ([]types.License, error)
	IsSysadmin(ctx context.Context, user string) (bool, error)
}

// Upload is a file body handed to the catalog for a blob-backed resource.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ResourcePort creates a resource on a dataset. A nil upload means the
// resource URL is passed through as-is.
type ResourcePort interface {
	CreateResource(ctx context.Context, datasetID string, resource types.Resource, upload *Upload) (types.Resource, error)
}
