package adapters

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobFileAdapter_Put(t *testing.T) {
	dir := t.TempDir()
	adapter := NewBlobFileAdapter(dir, "")

	link, err := adapter.Put(context.Background(), "abc/res-1/peaks.json", strings.NewReader(`{"peaks": []}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "file://"))
	content, err := os.ReadFile(filepath.Join(dir, "abc", "res-1", "peaks.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"peaks": []}`, string(content))

	withBase := NewBlobFileAdapter(dir, "https://files.example/")
	link, err = withBase.Put(context.Background(), "abc/res-2/page.html", strings.NewReader("<html/>"))
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/abc/res-2/page.html", link)
}

func TestBlobFileAdapter_RejectsEscapingKeys(t *testing.T) {
	adapter := NewBlobFileAdapter(t.TempDir(), "")
	for _, key := range []string{"", "../outside", "abc/../../x", "abc//x"} {
		_, err := adapter.Put(context.Background(), key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestBlobS3Adapter_Put(t *testing.T) {
	client := &fakeS3{}
	adapter := BlobS3Adapter{Client: client, Bucket: "datasets", PublicURL: "https://s3.example/datasets"}

	link, err := adapter.Put(context.Background(), "abc/res-1/peaks.json", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/datasets/abc/res-1/peaks.json", link)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "datasets", *client.inputs[0].Bucket)
	assert.Equal(t, "abc/res-1/peaks.json", *client.inputs[0].Key)
	assert.Equal(t, int64(7), *client.inputs[0].ContentLength)
	assert.Equal(t, "payload", client.bodies[0])
}

func TestBlobS3Adapter_PutError(t *testing.T) {
	adapter := BlobS3Adapter{Client: &fakeS3{err: errors.New("access denied")}, Bucket: "datasets"}
	_, err := adapter.Put(context.Background(), "abc/x", strings.NewReader("payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload blob to s3")
}

func TestNewBlobS3Adapter_PublicURL(t *testing.T) {
	adapter, err := NewBlobS3Adapter(context.Background(), S3Config{
		Endpoint:  "https://s3.example/",
		Region:    "eu-central-1",
		Bucket:    "datasets",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/datasets", adapter.PublicURL)

	_, err = NewBlobS3Adapter(context.Background(), S3Config{})
	require.Error(t, err)
}
