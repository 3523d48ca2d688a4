package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/shared"
	"chem-datapackager/internal/types"
)

const defaultSourceTimeout = 60 * time.Second
const maxSourceBytes = 256 << 20

// DataPackageSourceAdapter loads JSON arrays of data-package objects from
// disk or over HTTP. A single top-level object is accepted as a one-entry
// array.
type DataPackageSourceAdapter struct {
	Client *http.Client
}

func NewDataPackageSourceAdapter(timeoutSec int) DataPackageSourceAdapter {
	timeout := defaultSourceTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	return DataPackageSourceAdapter{Client: &http.Client{Timeout: timeout}}
}

func (a DataPackageSourceAdapter) LoadFile(path string) ([]types.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("data package file not found").
			WithCause(err)
	}
	return decodeDataPackages(data)
}

func (a DataPackageSourceAdapter) LoadURL(ctx context.Context, url string) ([]types.SourceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid data package url").
			WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: defaultSourceTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch data package").
			WithCause(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read data package").
			WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := errbuilder.CodeInternal
		if resp.StatusCode == http.StatusNotFound {
			code = errbuilder.CodeNotFound
		}
		return nil, errbuilder.New().
			WithCode(code).
			WithMsg("failed to fetch data package").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, string(data)))
	}
	return decodeDataPackages(data)
}

func decodeDataPackages(data []byte) ([]types.SourceRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		trimmed = append(append([]byte{'['}, trimmed...), ']')
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var records []types.SourceRecord
	if err := decoder.Decode(&records); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("malformed data package json").
			WithCause(err)
	}
	for i, record := range records {
		if record == nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("data package entry %d is not an object", i))
		}
	}
	return records, nil
}

var _ ports.DataPackageSourcePort = DataPackageSourceAdapter{}
