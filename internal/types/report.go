package types

// IngestReport summarizes one ingestion run for the report files.
type IngestReport struct {
	Ingested []IngestReportEntry
	Failures []IngestFailureEntry
}

type IngestReportEntry struct {
	DatasetID string
	Created   bool
	Molecule  SyncStatus
	Depiction DepictionStatus
}

type IngestFailureEntry struct {
	Source  string
	Index   int
	Name    string
	Message string
}
