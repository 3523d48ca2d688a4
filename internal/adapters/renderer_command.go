package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/shared"
	"chem-datapackager/internal/types"
)

const defaultRendererCommand = "obabel"
const defaultRendererTimeout = 60 * time.Second

// depictionEdgeInches is the printed edge of the square depiction. Open
// Babel sizes PNGs in pixels, so DPI becomes DPI*depictionEdgeInches.
const depictionEdgeInches = 2

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// CommandRenderer pipes a structure into an Open Babel compatible command
// and reads a PNG from its stdout. Projection options for atom sets are
// passed in DEPICT_* environment variables for wrappers that support them.
type CommandRenderer struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func NewCommandRenderer(command string, args []string, timeoutSec int) CommandRenderer {
	if strings.TrimSpace(command) == "" {
		command = defaultRendererCommand
	}
	timeout := defaultRendererTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	return CommandRenderer{Command: command, Args: args, Timeout: timeout}
}

func (r CommandRenderer) Render(ctx context.Context, request types.DepictionRequest) ([]byte, error) {
	if strings.TrimSpace(request.Structure) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("structure is empty")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	args := append(append([]string(nil), r.Args...), renderArgs(request)...)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Stdin = strings.NewReader(request.Structure)
	cmd.Env = append(os.Environ(), renderEnv(request.Options)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("depiction command failed").
			WithCause(shared.CommandError(stderr.Bytes(), err))
	}
	image := stdout.Bytes()
	if !bytes.HasPrefix(image, pngSignature) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("depiction command did not produce a png").
			WithCause(fmt.Errorf("stderr: %s", strings.TrimSpace(stderr.String())))
	}
	return image, nil
}

func renderArgs(request types.DepictionRequest) []string {
	format := "inchi"
	if request.Format == types.StructureFormatCIF {
		format = "cif"
	}
	args := []string{"-i" + format, "-opng"}
	if pixels := imagePixels(request.Options.DPI); pixels > 0 {
		args = append(args, "-xp", strconv.Itoa(pixels))
	}
	if request.Options.Transparent {
		args = append(args, "-xb", "none")
	}
	return args
}

func imagePixels(dpi int) int {
	if dpi <= 0 {
		return 0
	}
	return dpi * depictionEdgeInches
}

func renderEnv(options types.RenderOptions) []string {
	formatFloat := func(value float64) string { return strconv.FormatFloat(value, 'f', -1, 64) }
	env := []string{
		"DEPICT_DPI=" + strconv.Itoa(options.DPI),
		"DEPICT_TRANSPARENT=" + strconv.FormatBool(options.Transparent),
		"DEPICT_ROTATION=" + strings.Join([]string{
			formatFloat(options.RotationX),
			formatFloat(options.RotationY),
			formatFloat(options.RotationZ),
		}, ","),
		"DEPICT_RADIUS_SCALE=" + formatFloat(options.AtomRadiusScale),
		"DEPICT_UNIT_CELL=" + strconv.FormatBool(options.ShowUnitCell),
	}
	return env
}

var _ ports.RendererPort = CommandRenderer{}
