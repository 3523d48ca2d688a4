package cli

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chem-datapackager/internal/adapters"
	"chem-datapackager/internal/app"
	"chem-datapackager/internal/types"
)

// serviceOptions are the connection flags shared by every subcommand.
type serviceOptions struct {
	CatalogBackend      string
	CatalogEndpoint     string
	CatalogAPIKey       string
	CatalogDir          string
	CatalogSysadmins    []string
	CatalogTimeoutSec   int
	CatalogRetries      int
	CatalogRetryDelayMs int
	LicenseTTLSec       int
	StoreDriver         string
	StoreDSN            string
	ImageRoot           string
	SpoolDir            string
	ReportDir           string
	BlobBackend         string
	BlobDir             string
	BlobBaseURL         string
	S3Endpoint          string
	S3Region            string
	S3Bucket            string
	S3AccessKey         string
	S3SecretKey         string
	S3PublicURL         string
	RendererCommand     string
	RendererArgs        []string
	RendererTimeoutSec  int
	RenderDPI           int
	RenderTransparent   bool
	RenderRotateX       float64
	RenderRotateY       float64
	RenderRotateZ       float64
	RenderRadiusScale   float64
	RenderUnitCell      bool
	ExtrasMode          string
	HTTPTimeoutSec      int
	MetricsFile         string
}

func bindServiceFlags(cmd *cobra.Command, opts *serviceOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.CatalogBackend, "catalog-backend", app.CatalogBackendCKAN, "Catalog backend (ckan or file)")
	flags.StringVar(&opts.CatalogEndpoint, "catalog-endpoint", "", "CKAN base URL")
	flags.StringVar(&opts.CatalogAPIKey, "catalog-api-key", "", "CKAN API key")
	flags.StringVar(&opts.CatalogDir, "catalog-dir", "", "Directory of the file catalog")
	flags.StringSliceVar(&opts.CatalogSysadmins, "catalog-sysadmin", nil, "Sysadmin users of the file catalog")
	flags.IntVar(&opts.CatalogTimeoutSec, "catalog-timeout", 30, "Catalog HTTP timeout in seconds (0 = default)")
	flags.IntVar(&opts.CatalogRetries, "catalog-retries", 3, "Catalog request attempts (0 = default)")
	flags.IntVar(&opts.CatalogRetryDelayMs, "catalog-retry-delay-ms", 200, "Catalog retry base delay in ms (0 = default)")
	flags.IntVar(&opts.LicenseTTLSec, "license-ttl", 600, "Seconds the catalog license list is cached")
	flags.StringVar(&opts.StoreDriver, "store-driver", adapters.StoreDriverSQLite, "Molecule store driver (sqlite or postgres)")
	flags.StringVar(&opts.StoreDSN, "store-dsn", "molecules.db", "Molecule store DSN")
	flags.StringVar(&opts.ImageRoot, "image-root", "images", "Directory for depiction PNGs")
	flags.StringVar(&opts.SpoolDir, "spool-dir", "", "Directory for inline resource bodies during upload")
	flags.StringVar(&opts.ReportDir, "report-dir", "", "Write ingest report files to this directory")
	flags.StringVar(&opts.BlobBackend, "blob-backend", app.BlobBackendFile, "Blob store for file catalog uploads (file or s3)")
	flags.StringVar(&opts.BlobDir, "blob-dir", "", "Blob directory (defaults to <catalog-dir>/blobs)")
	flags.StringVar(&opts.BlobBaseURL, "blob-base-url", "", "Public URL prefix of the blob directory")
	flags.StringVar(&opts.S3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	flags.StringVar(&opts.S3Region, "s3-region", "", "S3 region")
	flags.StringVar(&opts.S3Bucket, "s3-bucket", "", "S3 bucket")
	flags.StringVar(&opts.S3AccessKey, "s3-access-key", "", "S3 access key")
	flags.StringVar(&opts.S3SecretKey, "s3-secret-key", "", "S3 secret key")
	flags.StringVar(&opts.S3PublicURL, "s3-public-url", "", "Public URL prefix of uploaded objects")
	flags.StringVar(&opts.RendererCommand, "renderer-command", "obabel", "Depiction renderer executable")
	flags.StringSliceVar(&opts.RendererArgs, "renderer-arg", nil, "Replace the renderer's default arguments")
	flags.IntVar(&opts.RendererTimeoutSec, "renderer-timeout", 60, "Renderer timeout in seconds (0 = default)")
	flags.IntVar(&opts.RenderDPI, "render-dpi", 300, "Depiction resolution in DPI (image edge is 2 inches)")
	flags.BoolVar(&opts.RenderTransparent, "render-transparent", true, "Render with a transparent background")
	flags.Float64Var(&opts.RenderRotateX, "render-rotate-x", 0, "CIF projection rotation around x in degrees")
	flags.Float64Var(&opts.RenderRotateY, "render-rotate-y", 0, "CIF projection rotation around y in degrees")
	flags.Float64Var(&opts.RenderRotateZ, "render-rotate-z", 0, "CIF projection rotation around z in degrees")
	flags.Float64Var(&opts.RenderRadiusScale, "render-radius-scale", 1.0, "CIF atom radius scale")
	flags.BoolVar(&opts.RenderUnitCell, "render-unit-cell", false, "Draw the CIF unit cell")
	flags.StringVar(&opts.ExtrasMode, "extras-mode", string(types.ExtrasModeDrop), "Unrecognized source keys: drop or extras")
	flags.IntVar(&opts.HTTPTimeoutSec, "http-timeout", 30, "Timeout for fetching data packages by URL (0 = default)")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics here after the run")

	for _, name := range []string{
		"catalog-backend", "catalog-endpoint", "catalog-api-key", "catalog-dir", "catalog-sysadmin",
		"catalog-timeout", "catalog-retries", "catalog-retry-delay-ms", "license-ttl",
		"store-driver", "store-dsn", "image-root", "spool-dir", "report-dir",
		"blob-backend", "blob-dir", "blob-base-url",
		"s3-endpoint", "s3-region", "s3-bucket", "s3-access-key", "s3-secret-key", "s3-public-url",
		"renderer-command", "renderer-arg", "renderer-timeout",
		"render-dpi", "render-transparent", "render-rotate-x", "render-rotate-y", "render-rotate-z",
		"render-radius-scale", "render-unit-cell",
		"extras-mode", "http-timeout", "metrics-file",
	} {
		_ = viper.BindPFlag(viperKey(name), flags.Lookup(name))
	}
}

func viperKey(flagName string) string {
	return strings.ReplaceAll(flagName, "-", "_")
}

func (o *serviceOptions) str(cmd *cobra.Command, value string, flagName string) string {
	return resolveString(cmd, value, viperKey(flagName), flagName)
}

func (o *serviceOptions) integer(cmd *cobra.Command, value int, flagName string) int {
	return resolveInt(cmd, value, viperKey(flagName), flagName)
}

func (o *serviceOptions) config(cmd *cobra.Command) app.Config {
	return app.Config{
		Catalog: app.CatalogConfig{
			Backend:      o.str(cmd, o.CatalogBackend, "catalog-backend"),
			Endpoint:     o.str(cmd, o.CatalogEndpoint, "catalog-endpoint"),
			APIKey:       o.str(cmd, o.CatalogAPIKey, "catalog-api-key"),
			Dir:          o.str(cmd, o.CatalogDir, "catalog-dir"),
			Sysadmins:    resolveStrings(cmd, o.CatalogSysadmins, "catalog_sysadmin", "catalog-sysadmin"),
			TimeoutSec:   o.integer(cmd, o.CatalogTimeoutSec, "catalog-timeout"),
			Retries:      o.integer(cmd, o.CatalogRetries, "catalog-retries"),
			RetryDelayMs: o.integer(cmd, o.CatalogRetryDelayMs, "catalog-retry-delay-ms"),
			LicenseTTL:   time.Duration(o.integer(cmd, o.LicenseTTLSec, "license-ttl")) * time.Second,
		},
		Blob: app.BlobConfig{
			Backend: o.str(cmd, o.BlobBackend, "blob-backend"),
			Dir:     o.str(cmd, o.BlobDir, "blob-dir"),
			BaseURL: o.str(cmd, o.BlobBaseURL, "blob-base-url"),
			S3: adapters.S3Config{
				Endpoint:  o.str(cmd, o.S3Endpoint, "s3-endpoint"),
				Region:    o.str(cmd, o.S3Region, "s3-region"),
				Bucket:    o.str(cmd, o.S3Bucket, "s3-bucket"),
				AccessKey: o.str(cmd, o.S3AccessKey, "s3-access-key"),
				SecretKey: o.str(cmd, o.S3SecretKey, "s3-secret-key"),
				PublicURL: o.str(cmd, o.S3PublicURL, "s3-public-url"),
			},
		},
		Store: app.StoreConfig{
			Driver: o.str(cmd, o.StoreDriver, "store-driver"),
			DSN:    o.str(cmd, o.StoreDSN, "store-dsn"),
		},
		Renderer: app.RendererConfig{
			Command:    o.str(cmd, o.RendererCommand, "renderer-command"),
			Args:       resolveStrings(cmd, o.RendererArgs, "renderer_arg", "renderer-arg"),
			TimeoutSec: o.integer(cmd, o.RendererTimeoutSec, "renderer-timeout"),
		},
		ImageRoot:      o.str(cmd, o.ImageRoot, "image-root"),
		SpoolDir:       o.str(cmd, o.SpoolDir, "spool-dir"),
		ReportDir:      o.str(cmd, o.ReportDir, "report-dir"),
		ExtrasMode:     o.str(cmd, o.ExtrasMode, "extras-mode"),
		HTTPTimeoutSec: o.integer(cmd, o.HTTPTimeoutSec, "http-timeout"),
		RenderOptions: types.RenderOptions{
			DPI:             o.integer(cmd, o.RenderDPI, "render-dpi"),
			Transparent:     resolveBool(cmd, o.RenderTransparent, "render_transparent", "render-transparent"),
			RotationX:       resolveFloat(cmd, o.RenderRotateX, "render_rotate_x", "render-rotate-x"),
			RotationY:       resolveFloat(cmd, o.RenderRotateY, "render_rotate_y", "render-rotate-y"),
			RotationZ:       resolveFloat(cmd, o.RenderRotateZ, "render_rotate_z", "render-rotate-z"),
			AtomRadiusScale: resolveFloat(cmd, o.RenderRadiusScale, "render_radius_scale", "render-radius-scale"),
			ShowUnitCell:    resolveBool(cmd, o.RenderUnitCell, "render_unit_cell", "render-unit-cell"),
		},
	}
}

// openService wires the full service. Callers must run the returned
// finish func, which writes metrics and closes the molecule store.
func openService(cmd *cobra.Command, opts *serviceOptions) (app.Service, func(), error) {
	metrics := adapters.NewPrometheusMetrics()
	service, closeStore, err := app.NewService(cmd.Context(), opts.config(cmd), metrics)
	if err != nil {
		return app.Service{}, nil, err
	}
	metricsFile := opts.str(cmd, opts.MetricsFile, "metrics-file")
	finish := func() {
		if metricsFile != "" {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				log.Warn().Err(err).Str("path", metricsFile).Msg("metrics not written")
			}
		}
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("molecule store close failed")
		}
	}
	return service, finish, nil
}
