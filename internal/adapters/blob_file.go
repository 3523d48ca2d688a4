package adapters

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/shared"
)

// BlobFileAdapter stores resource bodies below Dir. BaseURL, when set, is
// used to build the returned link instead of a file:// URL.
type BlobFileAdapter struct {
	Dir     string
	BaseURL string
}

func NewBlobFileAdapter(dir string, baseURL string) BlobFileAdapter {
	return BlobFileAdapter{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (a BlobFileAdapter) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(a.Dir) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("blob directory is empty")
	}
	clean, err := cleanBlobKey(key)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read blob body").
			WithCause(err)
	}
	path := filepath.Join(a.Dir, filepath.FromSlash(clean))
	if err := shared.WriteFileAtomic(path, data); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write blob").
			WithCause(err)
	}
	if a.BaseURL != "" {
		return a.BaseURL + "/" + clean, nil
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		absolute = path
	}
	return "file://" + filepath.ToSlash(absolute), nil
}

// cleanBlobKey rejects keys that would escape the blob root.
func cleanBlobKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(filepath.ToSlash(key)), "/")
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("blob key is empty")
	}
	for _, part := range strings.Split(trimmed, "/") {
		if part == ".." || part == "." || part == "" {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("blob key is not a clean relative path: " + key)
		}
	}
	return trimmed, nil
}

var _ ports.BlobStorePort = BlobFileAdapter{}
