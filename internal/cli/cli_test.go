package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"chem-datapackager/internal/types"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	expected := []string{
		"ingest", "ingest-cif", "map",
		"sync-molecules", "render", "purge",
	}
	for _, name := range expected {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestRootCommandServiceFlags(t *testing.T) {
	root := newRootCommand()
	flags := []string{
		"catalog-backend", "catalog-endpoint", "catalog-api-key", "catalog-dir",
		"store-driver", "store-dsn", "image-root", "blob-backend",
		"s3-endpoint", "s3-region", "s3-bucket", "s3-access-key", "s3-secret-key",
		"renderer-command", "extras-mode", "metrics-file", "report-dir",
	}
	for _, name := range flags {
		flag := root.PersistentFlags().Lookup(name)
		assert.NotNil(t, flag, "missing flag: %s", name)
	}
}

func TestSubcommandFlags(t *testing.T) {
	opts := &serviceOptions{}
	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{cmd: newIngestCommand(opts), flags: []string{"file", "url", "owner-org", "private"}},
		{cmd: newIngestCIFCommand(opts), flags: []string{"file", "owner-org", "private"}},
		{cmd: newMapCommand(opts), flags: []string{"file", "url", "cif"}},
		{cmd: newSyncMoleculesCommand(opts), flags: []string{"id"}},
		{cmd: newRenderCommand(opts), flags: []string{"inchi", "inchi-key"}},
		{cmd: newPurgeCommand(opts), flags: []string{"id", "actor"}},
	}
	for _, tt := range tests {
		for _, name := range tt.flags {
			assert.NotNil(t, tt.cmd.Flags().Lookup(name), "%s: missing flag %s", tt.cmd.Name(), name)
		}
	}
}

// ---------- Command execution tests ----------

const mapFixture = `[
  {
    "identifier": "MSBNK-Test-0001",
    "name": "Caffeine spectrum",
    "datePublished": "2021-04-01",
    "molecularFormula": "C8H10N4O2"
  }
]`

func TestMapCommandPrintsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(mapFixture), 0644))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"map", "--file", path, "--config", writeEmptyConfig(t)})
	require.NoError(t, root.Execute())

	var records []map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "msbnk-test-0001", records[0]["name"])
	assert.Equal(t, "C8H10N4O2", records[0]["mol_formula"])
}

func TestIngestCommandFileCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(mapFixture), 0644))
	metricsPath := filepath.Join(dir, "ingest.prom")
	reportDir := filepath.Join(dir, "reports")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"ingest", "--file", path,
		"--config", writeEmptyConfig(t),
		"--catalog-backend", "file",
		"--catalog-dir", filepath.Join(dir, "catalog"),
		"--store-dsn", filepath.Join(dir, "molecules.db"),
		"--image-root", filepath.Join(dir, "images"),
		"--metrics-file", metricsPath,
		"--report-dir", reportDir,
		"--owner-org", "chem-lab",
	})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "created: msbnk-test-0001")
	assert.Contains(t, out.String(), "ingested 1, failed 0")

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "chem_datapackager_records_ingested_total 1")

	report, err := os.ReadFile(filepath.Join(reportDir, "ingested.report"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(report), "msbnk-test-0001,created,"))
}

func TestPurgeCommandRequiresSysadmin(t *testing.T) {
	dir := t.TempDir()
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"purge", "--id", "abc", "--actor", "editor",
		"--config", writeEmptyConfig(t),
		"--catalog-backend", "file",
		"--catalog-dir", filepath.Join(dir, "catalog"),
		"--store-dsn", filepath.Join(dir, "molecules.db"),
	})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, 3, exitCodeForError(err))
}

// writeEmptyConfig keeps tests from picking up a chem-datapackager.yaml in
// the working directory.
func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0644))
	return path
}

// ---------- Helper function tests ----------

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		value    string
		expected string
	}{
		{
			name:     "nil cmd with value returns value",
			cmd:      nil,
			value:    "explicit",
			expected: "explicit",
		},
		{
			name:     "nil cmd empty value returns empty",
			cmd:      nil,
			value:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveString(tt.cmd, tt.value, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveStrings(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		values   []string
		expected []string
	}{
		{
			name:     "nil cmd with values returns values",
			cmd:      nil,
			values:   []string{"a", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "nil cmd empty returns nil",
			cmd:      nil,
			values:   nil,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveStrings(tt.cmd, tt.values, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveBool(t *testing.T) {
	got := resolveBool(nil, true, "test_key", "test-flag")
	assert.True(t, got)

	got = resolveBool(nil, false, "test_key", "test-flag")
	assert.False(t, got)
}

func TestResolveInt(t *testing.T) {
	got := resolveInt(nil, 42, "test_key", "test-flag")
	assert.Equal(t, 42, got)
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")
	assert.False(t, flagChanged(nil, ""), "nil cmd with empty name")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")
}

func TestFlagChangedAfterSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name: "invalid argument",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("you must define either a url or upload attribute"),
			expected: 2,
		},
		{
			name: "already exists",
			err: errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("dataset create failed after conflict retry"),
			expected: 2,
		},
		{
			name:     "catalog validation",
			err:      &types.CatalogError{Kind: types.ConflictKindOther, Fields: map[string][]string{"owner_org": {"missing"}}},
			expected: 2,
		},
		{
			name: "permission denied",
			err: errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg("only sysadmin can purge datasets"),
			expected: 3,
		},
		{
			name: "failed precondition",
			err: errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("image root is not configured"),
			expected: 4,
		},
		{
			name: "not found",
			err: errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("dataset not found"),
			expected: 5,
		},
		{
			name: "internal error",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("boom"),
			expected: 5,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitCodeForError(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name: "errbuilder with msg",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("something broke"),
			expected: "something broke",
		},
		{
			name:     "plain error",
			err:      assert.AnError,
			expected: assert.AnError.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessage(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
