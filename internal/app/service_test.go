package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chem-datapackager/internal/adapters"
	"chem-datapackager/internal/core"
	"chem-datapackager/internal/policies"
	"chem-datapackager/internal/types"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type stubRenderer struct {
	mu       sync.Mutex
	requests []types.DepictionRequest
	err      error
}

func (r *stubRenderer) Render(_ context.Context, request types.DepictionRequest) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.requests = append(r.requests, request)
	return append(append([]byte(nil), pngSignature...), []byte(request.Structure)...), nil
}

type countingMetrics struct {
	core.NoopMetrics
	ingested int
	failed   int
}

func (m *countingMetrics) RecordIngested() { m.ingested++ }
func (m *countingMetrics) RecordFailed()   { m.failed++ }

type testEnv struct {
	svc      Service
	catalog  adapters.CatalogFileAdapter
	store    adapters.MoleculeStoreGormAdapter
	renderer *stubRenderer
	metrics  *countingMetrics
	dir      string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	blobs := adapters.NewBlobFileAdapter(filepath.Join(dir, "blobs"), "")
	catalog := adapters.NewCatalogFileAdapter(filepath.Join(dir, "catalog"), []string{"admin"}, blobs)
	store, err := adapters.OpenMoleculeStore(adapters.StoreDriverSQLite, filepath.Join(dir, "molecules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	renderer := &stubRenderer{}
	metrics := &countingMetrics{}
	svc := Service{
		Catalog:       catalog,
		Resources:     catalog,
		Store:         store,
		Renderer:      renderer,
		Packages:      adapters.NewDataPackageSourceAdapter(5),
		CIFs:          adapters.NewCIFSourceAdapter(),
		Metrics:       metrics,
		Names:         policies.NamePolicy{Rand: func() int64 { return 7 }},
		ImageRoot:     filepath.Join(dir, "images"),
		ExtrasMode:    types.ExtrasModeDrop,
		RenderOptions: types.DefaultRenderOptions(),
		SpoolDir:      dir,
	}
	return testEnv{svc: svc, catalog: catalog, store: store, renderer: renderer, metrics: metrics, dir: dir}
}

func writeTestFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644))
	return path
}

const caffeinePackage = `
[
  {
    "identifier": "MSBNK-Test-0001",
    "name": "Caffeine spectrum",
    "description": "LC-MS spectrum of caffeine",
    "datePublished": "2021-04-01",
    "license": "https://creativecommons.org/licenses/by/4.0/",
    "url": "https://massbank.example/MSBNK-Test-0001",
    "alternateNames": ["guaranine"],
    "inChI": "InChI=1S/C8H10N4O2/c1-10-4-9-6-5(10)7(13)12(3)8(14)11(6)2/h4H,1-3H3",
    "inChIKey": "RYYVLZVUVIJVGH-UHFFFAOYSA-N",
    "molecularFormula": "C8H10N4O2",
    "monoisotopicMolecularWeight": 194.080376
  },
  {
    "identifier": "MSBNK-Test-0002",
    "name": "Undated spectrum"
  }
]
`

const benzeneCIF = `
data_ABC123
_chemical_name_common 'benzene'
_chemical_formula_sum 'C6 H6'
_space_group_IT_number 14
_citation_title 'Crystal structure of benzene'
loop_
_citation_author_name
primary 'Jane Doe'
_cell_length_a 7.39
`
