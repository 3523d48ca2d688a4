package types

type DatasetState string

const (
	DatasetStateDraft  DatasetState = "draft"
	DatasetStateActive DatasetState = "active"
)

type ResourceKind string

const (
	ResourceKindInline ResourceKind = "inline"
	ResourceKindLocal  ResourceKind = "local"
	ResourceKindRemote ResourceKind = "remote"
)

// ExtrasMode selects what the schema mapper does with source keys outside
// the recognized dataset schema.
type ExtrasMode string

const (
	ExtrasModeDrop   ExtrasMode = "drop"
	ExtrasModeExtras ExtrasMode = "extras"
)

type ConflictKind string

const (
	ConflictKindName  ConflictKind = "name"
	ConflictKindID    ConflictKind = "id"
	ConflictKindOther ConflictKind = "other"
)

type Verdict string

const (
	VerdictExists Verdict = "exists"
	VerdictAbsent Verdict = "absent"
)

type SyncStatus string

const (
	SyncStatusCreated   SyncStatus = "created"
	SyncStatusLinked    SyncStatus = "linked"
	SyncStatusUnchanged SyncStatus = "unchanged"
	SyncStatusSkipped   SyncStatus = "skipped"
	SyncStatusFailed    SyncStatus = "failed"
)

type DepictionStatus string

const (
	DepictionStatusRendered DepictionStatus = "rendered"
	DepictionStatusCached   DepictionStatus = "cached"
	DepictionStatusSkipped  DepictionStatus = "skipped"
	DepictionStatusFailed   DepictionStatus = "failed"
)

type StructureFormat string

const (
	StructureFormatInChI StructureFormat = "inchi"
	StructureFormatCIF   StructureFormat = "cif"
)
