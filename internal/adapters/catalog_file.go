package adapters

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/shared"
	"chem-datapackager/internal/types"
)

// CatalogFileAdapter keeps the catalog as one YAML document per dataset
// under Dir/datasets. It enforces the same name and id uniqueness rules as
// a hosted catalog and reports violations with the same messages.
type CatalogFileAdapter struct {
	Dir       string
	Sysadmins []string
	Blobs     ports.BlobStorePort
	Now       func() time.Time
}

func NewCatalogFileAdapter(dir string, sysadmins []string, blobs ports.BlobStorePort) CatalogFileAdapter {
	return CatalogFileAdapter{Dir: dir, Sysadmins: sysadmins, Blobs: blobs, Now: time.Now}
}

var _ ports.CatalogPort = CatalogFileAdapter{}
var _ ports.ResourcePort = CatalogFileAdapter{}

var defaultLicenses = []types.License{
	{ID: "cc-by", URL: "https://creativecommons.org/licenses/by/4.0/", Title: "Creative Commons Attribution"},
	{ID: "cc-by-sa", URL: "https://creativecommons.org/licenses/by-sa/4.0/", Title: "Creative Commons Attribution Share-Alike"},
	{ID: "cc-zero", URL: "https://creativecommons.org/publicdomain/zero/1.0/", Title: "Creative Commons CCZero"},
	{ID: "cc-nc", URL: "https://creativecommons.org/licenses/by-nc/4.0/", Title: "Creative Commons Non-Commercial (Any)"},
	{ID: "odc-by", URL: "https://opendatacommons.org/licenses/by/", Title: "Open Data Commons Attribution License"},
	{ID: "odc-odbl", URL: "https://opendatacommons.org/licenses/odbl/", Title: "Open Data Commons Open Database License (ODbL)"},
	{ID: "odc-pddl", URL: "https://opendatacommons.org/licenses/pddl/", Title: "Open Data Commons Public Domain Dedication and License (PDDL)"},
	{ID: "notspecified", URL: "", Title: "License not specified"},
	{ID: "other-open", URL: "", Title: "Other (Open)"},
}

func (a CatalogFileAdapter) CreateDataset(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.DatasetRecord{}, err
	}
	if err := validateDatasetKey(record.ID); err != nil {
		return types.DatasetRecord{}, err
	}
	if strings.TrimSpace(record.Name) == "" {
		return types.DatasetRecord{}, newCatalogError(map[string][]string{"name": {"Missing value"}})
	}
	if _, err := os.Stat(a.datasetPath(record.ID)); err == nil {
		return types.DatasetRecord{}, newCatalogError(map[string][]string{"id": {idExistsMessage}})
	}
	existing, err := a.listDatasets()
	if err != nil {
		return types.DatasetRecord{}, err
	}
	for _, other := range existing {
		if other.Name == record.Name {
			return types.DatasetRecord{}, newCatalogError(map[string][]string{"name": {nameInUseMessage}})
		}
	}
	now := a.timestamp()
	record.MetadataCreated = now
	record.MetadataModified = now
	if err := a.writeDataset(record); err != nil {
		return types.DatasetRecord{}, err
	}
	return record, nil
}

func (a CatalogFileAdapter) ShowDataset(ctx context.Context, id string) (types.DatasetRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.DatasetRecord{}, err
	}
	if err := validateDatasetKey(id); err != nil {
		return types.DatasetRecord{}, err
	}
	return a.readDataset(a.datasetPath(id))
}

func (a CatalogFileAdapter) UpdateDataset(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error) {
	current, err := a.ShowDataset(ctx, record.ID)
	if err != nil {
		return types.DatasetRecord{}, err
	}
	existing, err := a.listDatasets()
	if err != nil {
		return types.DatasetRecord{}, err
	}
	for _, other := range existing {
		if other.ID != record.ID && other.Name == record.Name {
			return types.DatasetRecord{}, newCatalogError(map[string][]string{"name": {nameInUseMessage}})
		}
	}
	record.MetadataCreated = current.MetadataCreated
	record.MetadataModified = a.timestamp()
	if err := a.writeDataset(record); err != nil {
		return types.DatasetRecord{}, err
	}
	return record, nil
}

func (a CatalogFileAdapter) DeleteDataset(ctx context.Context, id string) error {
	return a.removeDataset(ctx, id)
}

// PurgeDataset removes the dataset document. Blobs uploaded for its
// resources stay in the blob store.
func (a CatalogFileAdapter) PurgeDataset(ctx context.Context, id string) error {
	return a.removeDataset(ctx, id)
}

func (a CatalogFileAdapter) ListLicenses(ctx context.Context) ([]types.License, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(a.Dir, "licenses.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return append([]types.License(nil), defaultLicenses...), nil
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read licenses file").
			WithCause(err)
	}
	var licenses []types.License
	if err := yaml.Unmarshal(data, &licenses); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse licenses yaml").
			WithCause(err)
	}
	return licenses, nil
}

func (a CatalogFileAdapter) IsSysadmin(_ context.Context, user string) (bool, error) {
	user = strings.TrimSpace(user)
	return user != "" && slices.Contains(a.Sysadmins, user), nil
}

// CreateResource stores the upload body in the blob store and records the
// returned link as the resource url.
func (a CatalogFileAdapter) CreateResource(ctx context.Context, datasetID string, resource types.Resource, upload *ports.Upload) (types.Resource, error) {
	record, err := a.ShowDataset(ctx, datasetID)
	if err != nil {
		return types.Resource{}, err
	}
	resource.ID = uuid.NewString()
	resource.PackageID = datasetID
	if upload != nil {
		if a.Blobs == nil {
			return types.Resource{}, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("no blob store configured for resource uploads")
		}
		key := filepath.ToSlash(filepath.Join(datasetID, resource.ID, filepath.Base(upload.Filename)))
		link, err := a.Blobs.Put(ctx, key, upload.Body)
		if err != nil {
			return types.Resource{}, err
		}
		resource.URL = link
		resource.URLType = "upload"
	}
	if strings.TrimSpace(resource.URL) == "" {
		return types.Resource{}, newCatalogError(map[string][]string{"url": {"you must define either a url or upload attribute"}})
	}
	record.Resources = append(record.Resources, resource)
	record.MetadataModified = a.timestamp()
	if err := a.writeDataset(record); err != nil {
		return types.Resource{}, err
	}
	return resource, nil
}

func (a CatalogFileAdapter) removeDataset(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateDatasetKey(id); err != nil {
		return err
	}
	if err := os.Remove(a.datasetPath(id)); err != nil {
		if os.IsNotExist(err) {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("dataset not found")
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to delete dataset").
			WithCause(err)
	}
	return nil
}

func (a CatalogFileAdapter) datasetsDir() string {
	return filepath.Join(a.Dir, "datasets")
}

func (a CatalogFileAdapter) datasetPath(id string) string {
	return filepath.Join(a.datasetsDir(), id+".yaml")
}

func (a CatalogFileAdapter) listDatasets() ([]types.DatasetRecord, error) {
	entries, err := os.ReadDir(a.datasetsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read datasets directory").
			WithCause(err)
	}
	var records []types.DatasetRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		record, err := a.readDataset(filepath.Join(a.datasetsDir(), entry.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (a CatalogFileAdapter) readDataset(path string) (types.DatasetRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.DatasetRecord{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("dataset not found")
		}
		return types.DatasetRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read dataset").
			WithCause(err)
	}
	var record types.DatasetRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return types.DatasetRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to parse dataset yaml").
			WithCause(err)
	}
	return record, nil
}

func (a CatalogFileAdapter) writeDataset(record types.DatasetRecord) error {
	if strings.TrimSpace(a.Dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("catalog directory is empty")
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode dataset yaml").
			WithCause(err)
	}
	if err := shared.WriteFileAtomic(a.datasetPath(record.ID), data); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write dataset").
			WithCause(err)
	}
	return nil
}

func (a CatalogFileAdapter) timestamp() string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func validateDatasetKey(id string) error {
	if strings.TrimSpace(id) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dataset id is empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dataset id contains path separator")
	}
	return nil
}
