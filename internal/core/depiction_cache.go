package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/shared"
	"chem-datapackager/internal/types"
)

const inchiPrefix = "InChI"

// DepictionCache renders one PNG per structure key under Root and never
// overwrites an existing image.
type DepictionCache struct {
	Root     string
	Renderer ports.RendererPort
	Options  types.RenderOptions
	Metrics  ports.MetricsPort
}

func NewDepictionCache(root string, renderer ports.RendererPort, options types.RenderOptions, metrics ports.MetricsPort) DepictionCache {
	return DepictionCache{Root: root, Renderer: renderer, Options: options, Metrics: metricsOrNoop(metrics)}
}

// DepictInChI renders the molecule for an InChI string. Anything that is
// not an InChI is skipped.
func (c DepictionCache) DepictInChI(ctx context.Context, inchi string, inchiKey string) types.DepictionResult {
	if !strings.HasPrefix(inchi, inchiPrefix) {
		return types.DepictionResult{Status: types.DepictionStatusSkipped}
	}
	options := c.Options
	options.RotationX, options.RotationY, options.RotationZ = 0, 0, 0
	options.ShowUnitCell = false
	return c.depict(ctx, inchiKey, types.DepictionRequest{
		Format:    types.StructureFormatInChI,
		Structure: inchi,
		Options:   options,
	})
}

// DepictCIF renders a crystal structure from raw CIF text, keyed by the
// dataset id.
func (c DepictionCache) DepictCIF(ctx context.Context, cifText string, key string) types.DepictionResult {
	if strings.TrimSpace(cifText) == "" {
		return types.DepictionResult{Status: types.DepictionStatusSkipped}
	}
	return c.depict(ctx, key, types.DepictionRequest{
		Format:    types.StructureFormatCIF,
		Structure: cifText,
		Options:   c.Options,
	})
}

func (c DepictionCache) depict(ctx context.Context, key string, request types.DepictionRequest) types.DepictionResult {
	logger := log.Ctx(ctx).With().Str("inchi_key", key).Logger()
	path, err := c.imagePath(key)
	if err != nil {
		logger.Warn().Err(err).Msg("depiction skipped")
		return types.DepictionResult{Status: types.DepictionStatusFailed, Err: err}
	}
	if _, err := os.Stat(path); err == nil {
		return types.DepictionResult{Status: types.DepictionStatusCached, Path: path}
	}

	image, err := c.Renderer.Render(ctx, request)
	if err != nil {
		logger.Warn().Err(err).Msg("depiction render failed")
		return types.DepictionResult{Status: types.DepictionStatusFailed, Err: err}
	}
	if err := shared.WriteFileAtomic(path, image); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("depiction write failed")
		return types.DepictionResult{Status: types.DepictionStatusFailed, Err: err}
	}
	metricsOrNoop(c.Metrics).DepictionRendered()
	logger.Debug().Str("path", path).Msg("depiction rendered")
	return types.DepictionResult{Status: types.DepictionStatusRendered, Path: path}
}

func (c DepictionCache) imagePath(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("depiction key must be a plain file name: " + key)
	}
	if c.Root == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("image root is not configured")
	}
	return filepath.Join(c.Root, key+".png"), nil
}
