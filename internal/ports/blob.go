package ports

import (
	"context"
	"io"
)

// BlobStorePort stores uploaded resource bodies and returns a link to them.
type BlobStorePort interface {
	Put(ctx context.Context, key string, body io.Reader) (string, error)
}
