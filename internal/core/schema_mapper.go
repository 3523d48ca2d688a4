package core

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/types"
)

const (
	defaultResourceFormat = "HTML"
	missingFormula        = "-"
)

// recognizedKeys is the top-level dataset schema. Anything else in a mapped
// source record is dropped or, in extras mode, moved into extras.
var recognizedKeys = map[string]struct{}{
	"author":                    {},
	"author_email":              {},
	"creator_user_id":           {},
	"groups":                    {},
	"identifier":                {},
	"license_id":                {},
	"license_title":             {},
	"license":                   {},
	"maintainer":                {},
	"maintainer_email":          {},
	"metadata_created":          {},
	"metadata_modified":         {},
	"name":                      {},
	"notes":                     {},
	"owner_org":                 {},
	"private":                   {},
	"relationships_as_object":   {},
	"relationships_as_subject":  {},
	"revision_id":               {},
	"resources":                 {},
	"state":                     {},
	"tags":                      {},
	"tracking_summary":          {},
	"title":                     {},
	"type":                      {},
	"url":                       {},
	"version":                   {},
	"measurement_technique":     {},
	"measurement_technique_iri": {},
	"inchi":                     {},
	"exactmass":                 {},
	"inchi_key":                 {},
	"smiles":                    {},
	"mol_formula":               {},
	"doi":                       {},
	"language":                  {},
	"metadata_published":        {},
	"alternateNames":            {},
}

// excludedKeys survive the final filter without being part of the schema.
var excludedKeys = map[string]struct{}{
	"extras": {},
}

// IsTopLevelKey reports whether key names a top-level dataset field.
func IsTopLevelKey(key string) bool {
	if key == "id" {
		return true
	}
	_, ok := recognizedKeys[key]
	return ok
}

type SchemaMapper struct {
	ExtrasMode types.ExtrasMode
}

func NewSchemaMapper(mode types.ExtrasMode) SchemaMapper {
	if mode == "" {
		mode = types.ExtrasModeDrop
	}
	return SchemaMapper{ExtrasMode: mode}
}

// Map translates one data-package entry into a dataset record. Only a
// missing datePublished fails the mapping; every other rule falls back to
// a default.
func (m SchemaMapper) Map(ctx context.Context, source types.SourceRecord) (types.DatasetRecord, error) {
	fields := make(map[string]any, len(source)+8)
	for key, value := range source {
		fields[key] = value
	}

	mapStructureFields(ctx, source, fields)

	published, ok := source["datePublished"]
	if !ok || published == nil {
		return types.DatasetRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("datePublished is required")
	}
	fields["metadata_published"] = stringValue(published)

	if _, ok := source["url"]; ok {
		fields["resources"] = extractResources(source)
	}
	if license, ok := source["license"]; ok {
		fields["license"] = licenseValue(license)
	}

	fields["title"] = stringValue(source["name"])
	fields["name"] = strings.ToLower(stringValue(source["identifier"]))
	fields["notes"] = stringValue(source["description"])

	if techniques := listValue(source["measurementTechnique"]); len(techniques) > 0 {
		if first := mapValue(techniques[0]); first != nil {
			fields["measurement_technique"] = stringValue(first["name"])
			fields["measurement_technique_iri"] = stringValue(first["url"])
		}
	}

	mapContributors(fields)

	kept, extras := FilterRecognizedKeys(fields, m.ExtrasMode)
	record := recordFromFields(kept)
	record.Extras = mergeExtras(record.Extras, extras)
	return record, nil
}

func mapStructureFields(ctx context.Context, source types.SourceRecord, fields map[string]any) {
	fields["inchi"] = presentString(source, "inChI")
	fields["inchi_key"] = presentString(source, "inChIKey")
	fields["smiles"] = presentString(source, "smiles")

	switch {
	case truthy(source["molecularFormula"]):
		fields["mol_formula"] = stringValue(source["molecularFormula"])
	case truthy(source["chemicalComposition"]):
		fields["mol_formula"] = stringValue(source["chemicalComposition"])
	default:
		fields["mol_formula"] = missingFormula
	}

	raw, ok := source["monoisotopicMolecularWeight"]
	if !ok {
		log.Ctx(ctx).Warn().
			Str("identifier", stringValue(source["identifier"])).
			Msg("missing chemical information: monoisotopicMolecularWeight")
		return
	}
	mass, ok := floatValue(raw)
	if !ok {
		log.Ctx(ctx).Warn().
			Str("identifier", stringValue(source["identifier"])).
			Str("value", stringValue(raw)).
			Msg("unparseable monoisotopicMolecularWeight")
		return
	}
	fields["exactmass"] = mass
}

func presentString(source types.SourceRecord, key string) string {
	if value := source[key]; truthy(value) {
		return stringValue(value)
	}
	return ""
}

func extractResources(source types.SourceRecord) []types.Resource {
	url := stringValue(source["url"])
	if url == "" {
		return []types.Resource{}
	}
	format := defaultResourceFormat
	switch value := source["format"].(type) {
	case []any:
		if len(value) > 0 {
			format = stringValue(value[0])
		}
	case string:
		if value != "" {
			format = value
		}
	}
	return []types.Resource{{
		Name:         stringValue(source["name"]),
		ResourceType: format,
		Format:       format,
		URL:          url,
	}}
}

func licenseValue(value any) string {
	if license := mapValue(value); license != nil {
		for _, key := range []string{"name", "path", "title"} {
			if text := stringValue(license[key]); text != "" {
				return text
			}
		}
		return ""
	}
	return stringValue(value)
}

func mapContributors(fields map[string]any) {
	contributors := listValue(fields["contributors"])
	if len(contributors) == 0 {
		return
	}
	for _, item := range contributors {
		contributor := mapValue(item)
		role := stringValue(contributor["role"])
		if role == "" || role == "author" {
			fields["author"] = stringValue(contributor["title"])
			fields["author_email"] = stringValue(contributor["email"])
			break
		}
	}
	for _, item := range contributors {
		contributor := mapValue(item)
		if stringValue(contributor["role"]) == "maintainer" {
			fields["maintainer"] = stringValue(contributor["title"])
			fields["maintainer_email"] = stringValue(contributor["email"])
			break
		}
	}
	if contributorsFullyExtracted(contributors) {
		delete(fields, "contributors")
	}
}

// contributorsFullyExtracted reports whether author/maintainer already
// carry everything the contributors list holds.
func contributorsFullyExtracted(contributors []any) bool {
	roles := make([]string, 0, len(contributors))
	for _, item := range contributors {
		roles = append(roles, stringValue(mapValue(item)["role"]))
	}
	switch len(roles) {
	case 1:
		return roles[0] == "" || roles[0] == "author" || roles[0] == "maintainer"
	case 2:
		if roles[0] == roles[1] && (roles[0] == "" || roles[0] == "author" || roles[0] == "maintainer") {
			return false
		}
		return true
	default:
		return false
	}
}

// FilterRecognizedKeys keeps schema keys and excluded pass-through keys. In
// extras mode the removed keys come back as extras, sorted by key.
// Applying it to its own output is a no-op.
func FilterRecognizedKeys(fields map[string]any, mode types.ExtrasMode) (map[string]any, []types.Extra) {
	kept := make(map[string]any, len(fields))
	var removed []string
	for key, value := range fields {
		_, recognized := recognizedKeys[key]
		_, excluded := excludedKeys[key]
		if recognized || excluded {
			kept[key] = value
			continue
		}
		removed = append(removed, key)
	}
	if mode != types.ExtrasModeExtras || len(removed) == 0 {
		return kept, nil
	}
	sort.Strings(removed)
	extras := make([]types.Extra, 0, len(removed))
	for _, key := range removed {
		extras = append(extras, types.Extra{Key: key, Value: encodeExtraValue(fields[key])})
	}
	return kept, extras
}

// mergeExtras appends routed extras after any extras the source carried,
// dropping entries whose key is a top-level field or already present.
func mergeExtras(existing []types.Extra, routed []types.Extra) []types.Extra {
	seen := map[string]struct{}{}
	var merged []types.Extra
	for _, extra := range append(append([]types.Extra(nil), existing...), routed...) {
		if IsTopLevelKey(extra.Key) {
			continue
		}
		if _, ok := seen[extra.Key]; ok {
			continue
		}
		seen[extra.Key] = struct{}{}
		merged = append(merged, extra)
	}
	return merged
}

func recordFromFields(fields map[string]any) types.DatasetRecord {
	record := types.DatasetRecord{
		Name:                    stringValue(fields["name"]),
		Title:                   stringValue(fields["title"]),
		Identifier:              stringValue(fields["identifier"]),
		Notes:                   stringValue(fields["notes"]),
		URL:                     stringValue(fields["url"]),
		Version:                 stringValue(fields["version"]),
		DOI:                     stringValue(fields["doi"]),
		Language:                stringValue(fields["language"]),
		Type:                    stringValue(fields["type"]),
		Author:                  stringValue(fields["author"]),
		AuthorEmail:             stringValue(fields["author_email"]),
		Maintainer:              stringValue(fields["maintainer"]),
		MaintainerEmail:         stringValue(fields["maintainer_email"]),
		License:                 stringValue(fields["license"]),
		LicenseID:               stringValue(fields["license_id"]),
		LicenseTitle:            stringValue(fields["license_title"]),
		OwnerOrg:                stringValue(fields["owner_org"]),
		Private:                 boolValue(fields["private"]),
		State:                   types.DatasetState(stringValue(fields["state"])),
		MetadataCreated:         stringValue(fields["metadata_created"]),
		MetadataModified:        stringValue(fields["metadata_modified"]),
		MetadataPublished:       stringValue(fields["metadata_published"]),
		MeasurementTechnique:    stringValue(fields["measurement_technique"]),
		MeasurementTechniqueIRI: stringValue(fields["measurement_technique_iri"]),
		InChI:                   stringValue(fields["inchi"]),
		InChIKey:                stringValue(fields["inchi_key"]),
		Smiles:                  stringValue(fields["smiles"]),
		MolFormula:              stringValue(fields["mol_formula"]),
	}
	if mass, ok := fields["exactmass"]; ok {
		if value, ok := floatValue(mass); ok {
			record.ExactMass = &value
		}
	}
	for _, name := range listValue(fields["alternateNames"]) {
		if text := stringValue(name); text != "" {
			record.AlternateNames = append(record.AlternateNames, text)
		}
	}
	for _, item := range listValue(fields["tags"]) {
		if name := namedValue(item); name != "" {
			record.Tags = append(record.Tags, types.Tag{Name: name})
		}
	}
	for _, item := range listValue(fields["groups"]) {
		if name := namedValue(item); name != "" {
			record.Groups = append(record.Groups, types.Group{Name: name})
		}
	}
	record.Resources = resourcesValue(fields["resources"])
	for _, item := range listValue(fields["extras"]) {
		extra := mapValue(item)
		if extra == nil {
			continue
		}
		record.Extras = append(record.Extras, types.Extra{
			Key:   stringValue(extra["key"]),
			Value: encodeExtraValue(extra["value"]),
		})
	}
	return record
}

func namedValue(item any) string {
	if named := mapValue(item); named != nil {
		return stringValue(named["name"])
	}
	return stringValue(item)
}

func resourcesValue(value any) []types.Resource {
	if resources, ok := value.([]types.Resource); ok {
		return resources
	}
	var out []types.Resource
	for _, item := range listValue(value) {
		raw := mapValue(item)
		if raw == nil {
			continue
		}
		out = append(out, resourceFromSource(raw))
	}
	return out
}

// resourceFromSource reads a data-package resource descriptor. A path that
// is a URL is treated as a remote resource.
func resourceFromSource(raw map[string]any) types.Resource {
	resource := types.Resource{
		Name:         stringValue(raw["name"]),
		Description:  stringValue(raw["description"]),
		Format:       stringValue(raw["format"]),
		ResourceType: stringValue(raw["resource_type"]),
		Mimetype:     stringValue(raw["mediatype"]),
		URL:          stringValue(raw["url"]),
	}
	if mimetype := stringValue(raw["mimetype"]); mimetype != "" {
		resource.Mimetype = mimetype
	}
	if size, ok := floatValue(raw["bytes"]); ok {
		resource.Size = int64(size)
	}
	path := raw["path"]
	if paths := listValue(path); len(paths) > 0 {
		path = paths[0]
	}
	if location := stringValue(path); location != "" {
		if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
			resource.URL = location
		} else {
			resource.Path = location
		}
	}
	if data, ok := raw["data"]; ok && truthy(data) {
		if text, isText := data.(string); isText {
			resource.Data = text
		} else if encoded, err := json.MarshalIndent(data, "", "  "); err == nil {
			resource.Data = string(encoded)
		}
	}
	return resource
}
