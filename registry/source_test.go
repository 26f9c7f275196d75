package registry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSourceSchemes(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		location string
		want     any
	}{
		{"data/registry.db", &FileSource{}},
		{"/abs/registry.db", &FileSource{}},
		{"file:///abs/registry.db", &FileSource{}},
		{"C:/feast/registry.db", &FileSource{}},
		{"http://example.invalid/registry.db", &HTTPSource{}},
		{"https://example.invalid/registry.db", &HTTPSource{}},
	}
	for _, c := range cases {
		src, err := NewSource(ctx, c.location, SourceOptions{})
		require.NoError(t, err, c.location)
		assert.IsType(t, c.want, src, c.location)
	}

	src, err := NewSource(ctx, "file:///abs/registry.db", SourceOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/abs/registry.db", src.Location())
}

func TestNewSourceErrors(t *testing.T) {
	ctx := context.Background()
	for _, loc := range []string{"", "  ", "ftp://host/registry.db", "s3://bucket", "gs:///object"} {
		_, err := NewSource(ctx, loc, SourceOptions{})
		assert.Error(t, err, loc)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	require.NoError(t, os.WriteFile(path, []byte("proto"), 0o644))
	data, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("proto"), data)

	_, err = NewFileSource(path + ".missing").Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource(path).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/registry.db":
			_, _ = w.Write([]byte("remote"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := NewSource(context.Background(), srv.URL+"/registry.db", SourceOptions{HTTPClient: srv.Client()})
	require.NoError(t, err)
	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), data)

	_, err = NewHTTPSource(srv.URL+"/missing", srv.Client()).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewHTTPSource(srv.URL+"/broken", srv.Client()).Fetch(context.Background())
	assert.ErrorContains(t, err, "500")
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"feast/prod/registry.db": []byte("s3 doc")}}
	src := NewS3SourceWithClient(client, "feast", "prod/registry.db")
	assert.Equal(t, "s3://feast/prod/registry.db", src.Location())

	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("s3 doc"), data)

	_, err = NewS3SourceWithClient(client, "feast", "missing").Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGCSSource(t *testing.T) {
	boom := errors.New("permission denied")
	open := func(_ context.Context, bucket, object string) (io.ReadCloser, error) {
		if object == "registry.db" {
			return io.NopCloser(bytes.NewReader([]byte(bucket))), nil
		}
		return nil, boom
	}
	src := NewGCSSourceWithReader(open, "feast-bucket", "registry.db")
	assert.Equal(t, "gs://feast-bucket/registry.db", src.Location())
	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("feast-bucket"), data)
	assert.NoError(t, src.Close())

	_, err = NewGCSSourceWithReader(open, "b", "other").Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestHTTPSourceDefaultTimeout(t *testing.T) {
	src, err := NewSource(context.Background(), "https://registry.example/registry.db", SourceOptions{})
	require.NoError(t, err)
	hs, ok := src.(*HTTPSource)
	require.True(t, ok)
	assert.Equal(t, DefaultHTTPTimeout, hs.client.Timeout)
}
