package app

import "chem-datapackager/internal/types"

type IngestRequest struct {
	Path string
	URL  string
	// OwnerOrg and Private override what the source records say.
	OwnerOrg string
	Private  *bool
}

type IngestCIFRequest struct {
	Paths    []string
	OwnerOrg string
	Private  *bool
}

type IngestedRecord struct {
	Record    types.DatasetRecord
	Created   bool
	Molecule  types.SyncResult
	Depiction types.DepictionResult
}

// IngestFailure describes one source record that did not make it into the
// catalog. Source is the file it came from, Index its position there.
type IngestFailure struct {
	Source string
	Index  int
	Name   string
	Err    error
}

type IngestResult struct {
	Records  []IngestedRecord
	Failures []IngestFailure
}

// Err reports the first failure when nothing was ingested. A batch with at
// least one finalized record is a success.
func (r IngestResult) Err() error {
	if len(r.Records) > 0 || len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0].Err
}

func (r IngestResult) Report() types.IngestReport {
	report := types.IngestReport{}
	for _, entry := range r.Records {
		report.Ingested = append(report.Ingested, types.IngestReportEntry{
			DatasetID: entry.Record.ID,
			Created:   entry.Created,
			Molecule:  entry.Molecule.Status,
			Depiction: entry.Depiction.Status,
		})
	}
	for _, failure := range r.Failures {
		message := ""
		if failure.Err != nil {
			message = failure.Err.Error()
		}
		report.Failures = append(report.Failures, types.IngestFailureEntry{
			Source:  failure.Source,
			Index:   failure.Index,
			Name:    failure.Name,
			Message: message,
		})
	}
	return report
}

type MapRequest struct {
	Path string
	URL  string
	CIF  bool
}

type MapResult struct {
	Records  []types.DatasetRecord
	Failures []IngestFailure
}

type SyncRequest struct {
	DatasetID string
}

type SyncResult struct {
	DatasetID       string
	Molecule        types.SyncResult
	RelatedFailures int
}

type RenderRequest struct {
	InChI    string
	InChIKey string
}

type PurgeRequest struct {
	DatasetID string
	Actor     string
}

type PurgeResult struct {
	DatasetID      string
	LinksDeleted   int64
	RelatedDeleted int64
}
