package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

const (
	ingestedReportFile = "ingested.report"
	failuresReportFile = "failures.report"
)

// ReportFileAdapter writes the outcome of an ingestion run as two
// comma-separated files sorted for stable diffs.
type ReportFileAdapter struct {
	Dir string
}

func NewReportFileAdapter(dir string) ReportFileAdapter {
	return ReportFileAdapter{Dir: dir}
}

func (a ReportFileAdapter) WriteIngestReport(report types.IngestReport) error {
	if err := a.writeIngested(report.Ingested); err != nil {
		return err
	}
	return a.writeFailures(report.Failures)
}

func (a ReportFileAdapter) writeIngested(entries []types.IngestReportEntry) error {
	path, err := a.ensurePath(ingestedReportFile)
	if err != nil {
		return err
	}
	ordered := append([]types.IngestReportEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].DatasetID < ordered[j].DatasetID
	})
	var lines []string
	for _, entry := range ordered {
		action := "updated"
		if entry.Created {
			action = "created"
		}
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s", entry.DatasetID, action, entry.Molecule, entry.Depiction))
	}
	return a.write(path, lines)
}

func (a ReportFileAdapter) writeFailures(entries []types.IngestFailureEntry) error {
	path, err := a.ensurePath(failuresReportFile)
	if err != nil {
		return err
	}
	ordered := append([]types.IngestFailureEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Source != ordered[j].Source {
			return ordered[i].Source < ordered[j].Source
		}
		return ordered[i].Index < ordered[j].Index
	})
	var lines []string
	for _, entry := range ordered {
		lines = append(lines, fmt.Sprintf("%s,%d,%s,%s",
			entry.Source,
			entry.Index,
			entry.Name,
			strings.ReplaceAll(entry.Message, "\n", " "),
		))
	}
	return a.write(path, lines)
}

func (a ReportFileAdapter) write(path string, lines []string) error {
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write report").
			WithCause(err)
	}
	return nil
}

func (a ReportFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("report directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create report directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

var _ ports.ReportPort = ReportFileAdapter{}
