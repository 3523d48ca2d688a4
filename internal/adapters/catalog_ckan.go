package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/shared"
	"chem-datapackager/internal/types"
)

// CatalogCKANAdapter talks to a CKAN action API.
type CatalogCKANAdapter struct {
	Endpoint   string
	APIKey     string
	Client     *http.Client
	Retries    int
	RetryDelay time.Duration
	licenses   *cache.Cache
}

const defaultCKANTimeout = 30 * time.Second
const defaultCKANRetries = 3
const defaultCKANRetryDelay = 200 * time.Millisecond
const defaultLicenseTTL = 10 * time.Minute
const maxCKANRetryDelay = 2 * time.Second
const licenseCacheKey = "licenses"

func NewCatalogCKANAdapter(endpoint string, apiKey string, timeoutSec int, retries int, retryDelayMs int, licenseTTL time.Duration) CatalogCKANAdapter {
	if licenseTTL <= 0 {
		licenseTTL = defaultLicenseTTL
	}
	return CatalogCKANAdapter{
		Endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		APIKey:     apiKey,
		Client:     &http.Client{Timeout: normalizeCKANTimeout(timeoutSec)},
		Retries:    normalizeCKANRetries(retries),
		RetryDelay: normalizeCKANRetryDelay(retryDelayMs),
		// No cleanup interval: expired entries are replaced on the next read
		// and no janitor goroutine outlives the adapter.
		licenses: cache.New(licenseTTL, 0),
	}
}

var _ ports.CatalogPort = CatalogCKANAdapter{}
var _ ports.ResourcePort = CatalogCKANAdapter{}

// ckanPackage carries exactmass as ckanMass because CKAN stores custom
// fields as text and returns "" for a package created without one.
type ckanPackage struct {
	types.DatasetRecord
	ExactMass ckanMass `json:"exactmass,omitempty"`
}

// ckanMass decodes a JSON number, a quoted number, "" or null. The empty
// forms leave it unset.
type ckanMass string

func (m *ckanMass) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		raw = strings.TrimSpace(text)
	}
	*m = ckanMass(raw)
	return nil
}

func (m ckanMass) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("null"), nil
	}
	return []byte(m), nil
}

func (m ckanMass) float() (float64, bool) {
	if m == "" {
		return 0, false
	}
	mass, err := strconv.ParseFloat(string(m), 64)
	return mass, err == nil
}

func toCKANPackage(record types.DatasetRecord) ckanPackage {
	pkg := ckanPackage{DatasetRecord: record}
	if record.ExactMass != nil {
		pkg.ExactMass = ckanMass(strconv.FormatFloat(*record.ExactMass, 'f', -1, 64))
	}
	return pkg
}

func (p ckanPackage) record() types.DatasetRecord {
	record := p.DatasetRecord
	record.ExactMass = nil
	if mass, ok := p.ExactMass.float(); ok {
		record.ExactMass = &mass
	}
	return record
}

type ckanResponse struct {
	Success bool                       `json:"success"`
	Result  json.RawMessage            `json:"result"`
	Error   map[string]json.RawMessage `json:"error"`
}

func (a CatalogCKANAdapter) CreateDataset(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error) {
	return a.packageAction(ctx, "package_create", record)
}

func (a CatalogCKANAdapter) UpdateDataset(ctx context.Context, record types.DatasetRecord) (types.DatasetRecord, error) {
	return a.packageAction(ctx, "package_update", record)
}

func (a CatalogCKANAdapter) ShowDataset(ctx context.Context, id string) (types.DatasetRecord, error) {
	var pkg ckanPackage
	if err := a.action(ctx, "package_show", map[string]string{"id": id}, &pkg); err != nil {
		return types.DatasetRecord{}, err
	}
	return pkg.record(), nil
}

func (a CatalogCKANAdapter) DeleteDataset(ctx context.Context, id string) error {
	return a.action(ctx, "package_delete", map[string]string{"id": id}, nil)
}

func (a CatalogCKANAdapter) PurgeDataset(ctx context.Context, id string) error {
	return a.action(ctx, "dataset_purge", map[string]string{"id": id}, nil)
}

func (a CatalogCKANAdapter) ListLicenses(ctx context.Context) ([]types.License, error) {
	if a.licenses != nil {
		if cached, found := a.licenses.Get(licenseCacheKey); found {
			if licenses, ok := cached.([]types.License); ok {
				return licenses, nil
			}
		}
	}
	var licenses []types.License
	if err := a.action(ctx, "license_list", map[string]string{}, &licenses); err != nil {
		return nil, err
	}
	if a.licenses != nil {
		a.licenses.SetDefault(licenseCacheKey, licenses)
	}
	return licenses, nil
}

func (a CatalogCKANAdapter) IsSysadmin(ctx context.Context, user string) (bool, error) {
	if strings.TrimSpace(user) == "" {
		return false, nil
	}
	var result struct {
		Sysadmin bool `json:"sysadmin"`
	}
	if err := a.action(ctx, "user_show", map[string]string{"id": user}, &result); err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return result.Sysadmin, nil
}

// CreateResource posts remote resources as JSON and uploads blob-backed
// resources as multipart form data.
func (a CatalogCKANAdapter) CreateResource(ctx context.Context, datasetID string, resource types.Resource, upload *ports.Upload) (types.Resource, error) {
	resource.PackageID = datasetID
	var created types.Resource
	if upload == nil {
		if err := a.action(ctx, "resource_create", resource, &created); err != nil {
			return types.Resource{}, err
		}
		return created, nil
	}
	body, contentType, err := multipartResource(resource, upload)
	if err != nil {
		return types.Resource{}, err
	}
	if err := a.call(ctx, "resource_create", body, contentType, &created); err != nil {
		return types.Resource{}, err
	}
	return created, nil
}

func multipartResource(resource types.Resource, upload *ports.Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := []struct{ key, value string }{
		{"package_id", resource.PackageID},
		{"name", resource.Name},
		{"description", resource.Description},
		{"format", resource.Format},
		{"mimetype", resource.Mimetype},
		{"resource_type", resource.ResourceType},
		{"url", ""},
	}
	for _, field := range fields {
		if field.value == "" && field.key != "url" {
			continue
		}
		if err := writer.WriteField(field.key, field.value); err != nil {
			return nil, "", multipartError(err)
		}
	}
	part, err := writer.CreateFormFile("upload", upload.Filename)
	if err != nil {
		return nil, "", multipartError(err)
	}
	if _, err := io.Copy(part, upload.Body); err != nil {
		return nil, "", multipartError(err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", multipartError(err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func multipartError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to encode resource upload").
		WithCause(err)
}

func (a CatalogCKANAdapter) packageAction(ctx context.Context, action string, record types.DatasetRecord) (types.DatasetRecord, error) {
	var pkg ckanPackage
	if err := a.action(ctx, action, toCKANPackage(record), &pkg); err != nil {
		return types.DatasetRecord{}, err
	}
	return pkg.record(), nil
}

func (a CatalogCKANAdapter) action(ctx context.Context, action string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to encode %s request", action)).
			WithCause(err)
	}
	return a.call(ctx, action, body, "application/json", out)
}

// call posts body to the action endpoint, retrying transport failures and
// 5xx/429 responses with capped exponential backoff.
func (a CatalogCKANAdapter) call(ctx context.Context, action string, body []byte, contentType string, out any) error {
	if strings.TrimSpace(a.Endpoint) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("catalog endpoint is empty")
	}
	retries := normalizeCKANRetries(a.Retries)
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		retry, err := a.callOnce(ctx, action, body, contentType, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == retries-1 {
			return err
		}
		log.Ctx(ctx).Debug().Err(err).Str("action", action).Int("attempt", attempt+1).Msg("retrying catalog call")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.retryDelay(attempt)):
		}
	}
	return lastErr
}

func (a CatalogCKANAdapter) callOnce(ctx context.Context, action string, body []byte, contentType string, out any) (bool, error) {
	url := fmt.Sprintf("%s/api/3/action/%s", a.Endpoint, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create catalog request").
			WithCause(err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(a.APIKey) != "" {
		req.Header.Set("Authorization", a.APIKey)
	}
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: defaultCKANTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("catalog %s failed", action)).
			WithCause(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read catalog %s response", action)).
			WithCause(err)
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("catalog %s failed", action)).
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, string(raw)))
	}

	var decoded ckanResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("catalog %s returned an unreadable response", action)).
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, string(raw)))
	}
	if !decoded.Success {
		return false, ckanActionError(action, decoded.Error)
	}
	if out == nil || len(decoded.Result) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to decode catalog %s result", action)).
			WithCause(err)
	}
	return false, nil
}

// ckanActionError maps a CKAN error object onto the catalog error model.
// Validation errors become *types.CatalogError keyed by field.
func ckanActionError(action string, payload map[string]json.RawMessage) error {
	var errType, message string
	_ = json.Unmarshal(payload["__type"], &errType)
	_ = json.Unmarshal(payload["message"], &message)

	switch errType {
	case "Validation Error":
		fields := map[string][]string{}
		for key, raw := range payload {
			if key == "__type" {
				continue
			}
			var messages []string
			if err := json.Unmarshal(raw, &messages); err == nil {
				fields[key] = messages
				continue
			}
			var single string
			if err := json.Unmarshal(raw, &single); err == nil && single != "" {
				fields[key] = []string{single}
			}
		}
		return newCatalogError(fields)
	case "Not Found Error":
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("catalog %s: %s", action, notFoundMessage(message)))
	case "Authorization Error":
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(fmt.Sprintf("catalog %s: %s", action, message))
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("catalog %s failed: %s %s", action, errType, message))
	}
}

func notFoundMessage(message string) string {
	if strings.TrimSpace(message) == "" {
		return "not found"
	}
	return message
}

func (a CatalogCKANAdapter) retryDelay(attempt int) time.Duration {
	delay := normalizeCKANRetryDelay(int(a.RetryDelay/time.Millisecond)) * time.Duration(1<<attempt)
	if delay > maxCKANRetryDelay {
		delay = maxCKANRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func normalizeCKANTimeout(value int) time.Duration {
	if value <= 0 {
		return defaultCKANTimeout
	}
	return time.Duration(value) * time.Second
}

func normalizeCKANRetries(value int) int {
	if value <= 0 {
		return defaultCKANRetries
	}
	return value
}

func normalizeCKANRetryDelay(value int) time.Duration {
	if value <= 0 {
		return defaultCKANRetryDelay
	}
	return time.Duration(value) * time.Millisecond
}
