package ports

import "chem-datapackager/internal/types"

type ReportPort interface {
	WriteIngestReport(report types.IngestReport) error
}
