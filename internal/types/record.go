package types

// SourceRecord is one undecoded entry of an ingested file.
type SourceRecord map[string]any

// DatasetRecord is the canonical catalog representation of one ingested
// dataset. JSON names follow the catalog's package schema.
type DatasetRecord struct {
	ID                      string       `json:"id,omitempty" yaml:"id"`
	Name                    string       `json:"name" yaml:"name"`
	Title                   string       `json:"title" yaml:"title"`
	Identifier              string       `json:"identifier" yaml:"identifier"`
	Notes                   string       `json:"notes" yaml:"notes"`
	URL                     string       `json:"url,omitempty" yaml:"url,omitempty"`
	Version                 string       `json:"version,omitempty" yaml:"version,omitempty"`
	DOI                     string       `json:"doi,omitempty" yaml:"doi,omitempty"`
	Language                string       `json:"language,omitempty" yaml:"language,omitempty"`
	Type                    string       `json:"type,omitempty" yaml:"type,omitempty"`
	Author                  string       `json:"author" yaml:"author"`
	AuthorEmail             string       `json:"author_email,omitempty" yaml:"author_email,omitempty"`
	Maintainer              string       `json:"maintainer,omitempty" yaml:"maintainer,omitempty"`
	MaintainerEmail         string       `json:"maintainer_email,omitempty" yaml:"maintainer_email,omitempty"`
	License                 string       `json:"license,omitempty" yaml:"license,omitempty"`
	LicenseID               string       `json:"license_id,omitempty" yaml:"license_id,omitempty"`
	LicenseTitle            string       `json:"license_title,omitempty" yaml:"license_title,omitempty"`
	OwnerOrg                string       `json:"owner_org,omitempty" yaml:"owner_org,omitempty"`
	Private                 bool         `json:"private" yaml:"private"`
	State                   DatasetState `json:"state,omitempty" yaml:"state,omitempty"`
	MetadataCreated         string       `json:"metadata_created,omitempty" yaml:"metadata_created,omitempty"`
	MetadataModified        string       `json:"metadata_modified,omitempty" yaml:"metadata_modified,omitempty"`
	MetadataPublished       string       `json:"metadata_published,omitempty" yaml:"metadata_published,omitempty"`
	MeasurementTechnique    string       `json:"measurement_technique,omitempty" yaml:"measurement_technique,omitempty"`
	MeasurementTechniqueIRI string       `json:"measurement_technique_iri,omitempty" yaml:"measurement_technique_iri,omitempty"`
	AlternateNames          []string     `json:"alternateNames,omitempty" yaml:"alternateNames,omitempty"`
	Tags                    []Tag        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Groups                  []Group      `json:"groups,omitempty" yaml:"groups,omitempty"`

	InChI      string   `json:"inchi" yaml:"inchi"`
	InChIKey   string   `json:"inchi_key" yaml:"inchi_key"`
	Smiles     string   `json:"smiles" yaml:"smiles"`
	MolFormula string   `json:"mol_formula" yaml:"mol_formula"`
	ExactMass  *float64 `json:"exactmass,omitempty" yaml:"exactmass,omitempty"`

	Resources []Resource `json:"resources,omitempty" yaml:"resources,omitempty"`
	Extras    []Extra    `json:"extras,omitempty" yaml:"extras,omitempty"`
}

type Tag struct {
	Name string `json:"name" yaml:"name"`
}

type Group struct {
	Name string `json:"name" yaml:"name"`
}

type Extra struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Resource is a file or link attached to a dataset. Exactly one of Data,
// Path or URL drives how it is created; see Kind.
type Resource struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	PackageID    string `json:"package_id,omitempty" yaml:"package_id,omitempty"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	ResourceType string `json:"resource_type,omitempty" yaml:"resource_type,omitempty"`
	Format       string `json:"format,omitempty" yaml:"format,omitempty"`
	Mimetype     string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
	Size         int64  `json:"size,omitempty" yaml:"size,omitempty"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty"`
	URLType      string `json:"url_type,omitempty" yaml:"url_type,omitempty"`
	Data         string `json:"-" yaml:"-"`
	Path         string `json:"-" yaml:"-"`
}

func (r Resource) Kind() ResourceKind {
	if r.Data != "" {
		return ResourceKindInline
	}
	if r.Path != "" {
		return ResourceKindLocal
	}
	return ResourceKindRemote
}

type License struct {
	ID    string `json:"id" yaml:"id"`
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`
}
