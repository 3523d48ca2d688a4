package core

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

// Catalog name constraints: lowercase alphanumerics, "-" and "_".
const (
	NameMinLength = 2
	NameMaxLength = 100
)

var (
	nameSeparators = regexp.MustCompile(`[ .:/]`)
	nameInvalid    = regexp.MustCompile(`[^a-z0-9_-]`)
	nameDashes     = regexp.MustCompile(`-+`)
)

// MungeName normalizes free text into a valid catalog name.
func MungeName(value string) string {
	ascii, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		ascii = value
	}
	name := nameSeparators.ReplaceAllString(strings.ToLower(ascii), "-")
	name = nameInvalid.ReplaceAllString(name, "")
	name = nameDashes.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > NameMaxLength {
		name = strings.TrimRight(name[:NameMaxLength], "-")
	}
	for len(name) < NameMinLength {
		name += "_"
	}
	return name
}

// PrepareIdentity derives the catalog name and id from the identifier.
func PrepareIdentity(record types.DatasetRecord) (types.DatasetRecord, error) {
	identifier := strings.TrimSpace(record.Identifier)
	if identifier == "" {
		return record, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dataset identifier is required")
	}
	record.Name = strings.ToLower(identifier)
	record.ID = MungeName(record.Name)
	return record, nil
}

type IdentityResolver struct {
	Catalog ports.CatalogPort
}

func NewIdentityResolver(catalog ports.CatalogPort) IdentityResolver {
	return IdentityResolver{Catalog: catalog}
}

// Resolve looks the record's id up in the catalog. Any lookup failure
// counts as absent so that a flaky catalog never blocks ingestion.
func (r IdentityResolver) Resolve(ctx context.Context, record types.DatasetRecord) (types.Verdict, types.DatasetRecord) {
	assert.NotEmpty(ctx, record.ID, "dataset id must be derived before resolving")
	existing, err := r.Catalog.ShowDataset(ctx, record.ID)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("dataset", record.ID).Msg("dataset lookup failed, treating as absent")
		return types.VerdictAbsent, types.DatasetRecord{}
	}
	return types.VerdictExists, existing
}
