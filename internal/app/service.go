package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/adapters"
	"chem-datapackager/internal/core"
	"chem-datapackager/internal/policies"
	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

type Service struct {
	Catalog       ports.CatalogPort
	Resources     ports.ResourcePort
	Store         ports.MoleculeStorePort
	Renderer      ports.RendererPort
	Packages      ports.DataPackageSourcePort
	CIFs          ports.CIFSourcePort
	Metrics       ports.MetricsPort
	Reports       ports.ReportPort
	Names         policies.NamePolicy
	ImageRoot     string
	ExtrasMode    types.ExtrasMode
	RenderOptions types.RenderOptions
	// SpoolDir holds inline resource bodies during upload.
	SpoolDir string
}

// NewSourceService builds a service that can only load and map sources.
func NewSourceService(cfg Config) (Service, error) {
	mode, err := ParseExtrasMode(cfg.ExtrasMode)
	if err != nil {
		return Service{}, err
	}
	return Service{
		Packages:      adapters.NewDataPackageSourceAdapter(cfg.HTTPTimeoutSec),
		CIFs:          adapters.NewCIFSourceAdapter(),
		Metrics:       core.NoopMetrics{},
		Names:         policies.NewNamePolicy(),
		ExtrasMode:    mode,
		RenderOptions: cfg.RenderOptions,
	}, nil
}

// NewService wires every collaborator from cfg. The returned close func
// releases the molecule store.
func NewService(ctx context.Context, cfg Config, metrics ports.MetricsPort) (Service, func() error, error) {
	svc, err := NewSourceService(cfg)
	if err != nil {
		return Service{}, nil, err
	}
	if metrics != nil {
		svc.Metrics = metrics
	}
	svc.ImageRoot = strings.TrimSpace(cfg.ImageRoot)
	svc.SpoolDir = strings.TrimSpace(cfg.SpoolDir)
	if dir := strings.TrimSpace(cfg.ReportDir); dir != "" {
		svc.Reports = adapters.NewReportFileAdapter(dir)
	}

	catalog, resources, err := newCatalog(ctx, cfg)
	if err != nil {
		return Service{}, nil, err
	}
	svc.Catalog = catalog
	svc.Resources = resources

	store, err := adapters.OpenMoleculeStore(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return Service{}, nil, err
	}
	svc.Store = store
	svc.Renderer = adapters.NewCommandRenderer(cfg.Renderer.Command, cfg.Renderer.Args, cfg.Renderer.TimeoutSec)
	return svc, store.Close, nil
}

func newCatalog(ctx context.Context, cfg Config) (ports.CatalogPort, ports.ResourcePort, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Catalog.Backend))
	if backend == "" {
		backend = CatalogBackendCKAN
	}
	switch backend {
	case CatalogBackendCKAN:
		if strings.TrimSpace(cfg.Catalog.Endpoint) == "" {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("catalog endpoint is required for ckan backend")
		}
		adapter := adapters.NewCatalogCKANAdapter(cfg.Catalog.Endpoint, cfg.Catalog.APIKey,
			cfg.Catalog.TimeoutSec, cfg.Catalog.Retries, cfg.Catalog.RetryDelayMs, cfg.Catalog.LicenseTTL)
		return adapter, adapter, nil
	case CatalogBackendFile:
		dir := strings.TrimSpace(cfg.Catalog.Dir)
		if dir == "" {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("catalog directory is required for file backend")
		}
		blobs, err := newBlobStore(ctx, cfg.Blob, filepath.Join(dir, "blobs"))
		if err != nil {
			return nil, nil, err
		}
		adapter := adapters.NewCatalogFileAdapter(dir, cfg.Catalog.Sysadmins, blobs)
		return adapter, adapter, nil
	default:
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported catalog backend")
	}
}

func newBlobStore(ctx context.Context, cfg BlobConfig, defaultDir string) (ports.BlobStorePort, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", BlobBackendFile:
		dir := strings.TrimSpace(cfg.Dir)
		if dir == "" {
			dir = defaultDir
		}
		return adapters.NewBlobFileAdapter(dir, cfg.BaseURL), nil
	case BlobBackendS3:
		return adapters.NewBlobS3Adapter(ctx, cfg.S3)
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported blob backend")
	}
}

func (s Service) reconciler() core.Reconciler {
	reconciler := core.NewReconciler(s.Catalog, s.Resources, s.Metrics)
	if s.Names.Rand != nil {
		reconciler.Names = s.Names
	}
	reconciler.TempDir = s.SpoolDir
	return reconciler
}

func (s Service) depictionCache() core.DepictionCache {
	return core.NewDepictionCache(s.ImageRoot, s.Renderer, s.RenderOptions, s.Metrics)
}

func (s Service) requireCatalog() error {
	if s.Catalog == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("catalog is not configured")
	}
	return nil
}

func (s Service) requireIngest() error {
	if err := s.requireCatalog(); err != nil {
		return err
	}
	if s.Resources == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("resource store is not configured")
	}
	return nil
}

func (s Service) requireStore() error {
	if s.Store == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("molecule store is not configured")
	}
	return nil
}
