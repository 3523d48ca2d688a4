package app

import (
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/adapters"
	"chem-datapackager/internal/types"
)

const (
	CatalogBackendCKAN = "ckan"
	CatalogBackendFile = "file"
	BlobBackendFile    = "file"
	BlobBackendS3      = "s3"
)

type CatalogConfig struct {
	Backend      string
	Endpoint     string
	APIKey       string
	Dir          string
	Sysadmins    []string
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
	LicenseTTL   time.Duration
}

type BlobConfig struct {
	Backend string
	Dir     string
	BaseURL string
	S3      adapters.S3Config
}

type StoreConfig struct {
	Driver string
	DSN    string
}

type RendererConfig struct {
	Command    string
	Args       []string
	TimeoutSec int
}

// Config carries every connection parameter the service needs. Nothing is
// read from the environment below this point.
type Config struct {
	Catalog        CatalogConfig
	Blob           BlobConfig
	Store          StoreConfig
	Renderer       RendererConfig
	ImageRoot      string
	SpoolDir       string
	ReportDir      string
	ExtrasMode     string
	HTTPTimeoutSec int
	RenderOptions  types.RenderOptions
}

func ParseExtrasMode(value string) (types.ExtrasMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(types.ExtrasModeDrop):
		return types.ExtrasModeDrop, nil
	case string(types.ExtrasModeExtras):
		return types.ExtrasModeExtras, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported extras mode: " + value)
	}
}
