package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

const testCKANEndpoint = "https://catalog.example"

func newMockedCKAN(t *testing.T) CatalogCKANAdapter {
	t.Helper()
	adapter := NewCatalogCKANAdapter(testCKANEndpoint+"/", "secret-key", 5, 3, 1, time.Minute)
	httpmock.ActivateNonDefault(adapter.Client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return adapter
}

func actionURL(action string) string {
	return testCKANEndpoint + "/api/3/action/" + action
}

func TestCKAN_ShowDataset(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("package_show"),
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "secret-key", req.Header.Get("Authorization"))
			var payload map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "data_abc123", payload["id"])
			return httpmock.NewStringResponse(http.StatusOK, `{
				"success": true,
				"result": {
					"id": "data_abc123",
					"name": "data_abc123",
					"title": "Benzene",
					"state": "active",
					"exactmass": "78.04695",
					"extras": [{"key": "space_group_IT_number", "value": "14"}]
				}
			}`), nil
		})

	record, err := adapter.ShowDataset(context.Background(), "data_abc123")
	require.NoError(t, err)
	assert.Equal(t, "Benzene", record.Title)
	assert.Equal(t, types.DatasetStateActive, record.State)
	require.NotNil(t, record.ExactMass)
	assert.InDelta(t, 78.04695, *record.ExactMass, 1e-9)
	assert.Equal(t, []types.Extra{{Key: "space_group_IT_number", Value: "14"}}, record.Extras)
}

func TestCKAN_ShowDatasetExactMassForms(t *testing.T) {
	mass := 78.04695
	tests := []struct {
		name   string
		value  string
		expect *float64
	}{
		{name: "empty text", value: `""`, expect: nil},
		{name: "null", value: `null`, expect: nil},
		{name: "quoted number", value: `"78.04695"`, expect: &mass},
		{name: "number", value: `78.04695`, expect: &mass},
		{name: "unparseable text", value: `"n/a"`, expect: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newMockedCKAN(t)
			httpmock.RegisterResponder(http.MethodPost, actionURL("package_show"),
				httpmock.NewStringResponder(http.StatusOK, `{
					"success": true,
					"result": {"id": "data_abc123", "name": "data_abc123", "state": "active", "exactmass": `+tt.value+`}
				}`))

			record, err := adapter.ShowDataset(context.Background(), "data_abc123")
			require.NoError(t, err)
			assert.Equal(t, "data_abc123", record.ID)
			if tt.expect == nil {
				assert.Nil(t, record.ExactMass)
				return
			}
			require.NotNil(t, record.ExactMass)
			assert.InDelta(t, *tt.expect, *record.ExactMass, 1e-9)
		})
	}
}

func TestCKAN_CreateDatasetWithoutMassOmitsField(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("package_create"),
		func(req *http.Request) (*http.Response, error) {
			var payload map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.NotContains(t, payload, "exactmass")
			payload["exactmass"] = ""
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"success": true, "result": payload})
		})

	record, err := adapter.CreateDataset(context.Background(), types.DatasetRecord{ID: "msbnk-2", Name: "msbnk-2"})
	require.NoError(t, err)
	assert.Nil(t, record.ExactMass)
}

func TestCKAN_ShowDatasetNotFound(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("package_show"),
		httpmock.NewStringResponder(http.StatusNotFound,
			`{"success": false, "error": {"__type": "Not Found Error", "message": "Not found"}}`))

	_, err := adapter.ShowDataset(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestCKAN_CreateDatasetConflicts(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect types.ConflictKind
	}{
		{
			name:   "name in use",
			body:   `{"success": false, "error": {"__type": "Validation Error", "name": ["That URL is already in use."]}}`,
			expect: types.ConflictKindName,
		},
		{
			name:   "id exists",
			body:   `{"success": false, "error": {"__type": "Validation Error", "id": ["Dataset id already exists"]}}`,
			expect: types.ConflictKindID,
		},
		{
			name:   "other validation",
			body:   `{"success": false, "error": {"__type": "Validation Error", "owner_org": ["Organization does not exist"]}}`,
			expect: types.ConflictKindOther,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newMockedCKAN(t)
			httpmock.RegisterResponder(http.MethodPost, actionURL("package_create"),
				httpmock.NewStringResponder(http.StatusConflict, tt.body))

			_, err := adapter.CreateDataset(context.Background(), types.DatasetRecord{ID: "abc", Name: "abc"})
			require.Error(t, err)
			var catalogErr *types.CatalogError
			require.ErrorAs(t, err, &catalogErr)
			assert.Equal(t, tt.expect, catalogErr.Kind)
		})
	}
}

func TestCKAN_CreateDatasetSendsPackage(t *testing.T) {
	adapter := newMockedCKAN(t)
	mass := 194.080376
	httpmock.RegisterResponder(http.MethodPost, actionURL("package_create"),
		func(req *http.Request) (*http.Response, error) {
			var payload map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "draft", payload["state"])
			assert.Equal(t, "RYYVLZVUVIJVGH-UHFFFAOYSA-N", payload["inchi_key"])
			assert.InDelta(t, mass, payload["exactmass"], 1e-9)
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"success": true, "result": payload})
		})

	record, err := adapter.CreateDataset(context.Background(), types.DatasetRecord{
		ID:        "msbnk-1",
		Name:      "msbnk-1",
		State:     types.DatasetStateDraft,
		InChIKey:  "RYYVLZVUVIJVGH-UHFFFAOYSA-N",
		ExactMass: &mass,
	})
	require.NoError(t, err)
	require.NotNil(t, record.ExactMass)
	assert.InDelta(t, mass, *record.ExactMass, 1e-9)
}

func TestCKAN_RetriesServerErrors(t *testing.T) {
	adapter := newMockedCKAN(t)
	calls := 0
	httpmock.RegisterResponder(http.MethodPost, actionURL("package_delete"),
		func(_ *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, "busy"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"success": true, "result": null}`), nil
		})

	require.NoError(t, adapter.DeleteDataset(context.Background(), "abc"))
	assert.Equal(t, 3, calls)
}

func TestCKAN_GivesUpAfterRetries(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("dataset_purge"),
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	err := adapter.PurgeDataset(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestCKAN_ListLicensesIsCached(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("license_list"),
		httpmock.NewStringResponder(http.StatusOK, `{"success": true, "result": [
			{"id": "cc-by", "url": "https://creativecommons.org/licenses/by/4.0/", "title": "Creative Commons Attribution"}
		]}`))

	for i := 0; i < 3; i++ {
		licenses, err := adapter.ListLicenses(context.Background())
		require.NoError(t, err)
		require.Len(t, licenses, 1)
		assert.Equal(t, "cc-by", licenses[0].ID)
	}
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCKAN_IsSysadmin(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("user_show"),
		func(req *http.Request) (*http.Response, error) {
			var payload map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			switch payload["id"] {
			case "admin":
				return httpmock.NewStringResponse(http.StatusOK, `{"success": true, "result": {"name": "admin", "sysadmin": true}}`), nil
			case "editor":
				return httpmock.NewStringResponse(http.StatusOK, `{"success": true, "result": {"name": "editor", "sysadmin": false}}`), nil
			default:
				return httpmock.NewStringResponse(http.StatusNotFound, `{"success": false, "error": {"__type": "Not Found Error", "message": "User not found"}}`), nil
			}
		})

	for user, expect := range map[string]bool{"admin": true, "editor": false, "ghost": false, "": false} {
		ok, err := adapter.IsSysadmin(context.Background(), user)
		require.NoError(t, err, user)
		assert.Equal(t, expect, ok, user)
	}
}

func TestCKAN_CreateResourceUpload(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("resource_create"),
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "abc", req.FormValue("package_id"))
			assert.Equal(t, "peaks", req.FormValue("name"))
			file, header, err := req.FormFile("upload")
			require.NoError(t, err)
			defer file.Close()
			content, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "peaks.json", header.Filename)
			assert.Equal(t, `{"peaks": []}`, string(content))
			return httpmock.NewStringResponse(http.StatusOK, `{"success": true, "result": {
				"id": "res-1", "package_id": "abc", "name": "peaks",
				"url": "https://catalog.example/dataset/abc/resource/res-1/download/peaks.json",
				"url_type": "upload"
			}}`), nil
		})

	resource, err := adapter.CreateResource(context.Background(), "abc", types.Resource{Name: "peaks"}, &ports.Upload{
		Filename: "peaks.json",
		Body:     bytes.NewBufferString(`{"peaks": []}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "res-1", resource.ID)
	assert.True(t, strings.HasSuffix(resource.URL, "/peaks.json"))
}

func TestCKAN_CreateResourceRemote(t *testing.T) {
	adapter := newMockedCKAN(t)
	httpmock.RegisterResponder(http.MethodPost, actionURL("resource_create"),
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			var payload map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "https://example.org/abc", payload["url"])
			assert.Equal(t, "abc", payload["package_id"])
			payload["id"] = "res-2"
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"success": true, "result": payload})
		})

	resource, err := adapter.CreateResource(context.Background(), "abc", types.Resource{Name: "page", URL: "https://example.org/abc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "res-2", resource.ID)
}

func TestCKAN_EmptyEndpoint(t *testing.T) {
	adapter := NewCatalogCKANAdapter("", "", 0, 0, 0, 0)
	_, err := adapter.ShowDataset(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
