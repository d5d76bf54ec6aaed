package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
)

var (
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 32)...)
	bmpBytes  = append([]byte{'B', 'M'}, make([]byte, 32)...)
)

const oversize = maxImageBytes + 1<<20

func writeOversized(w http.ResponseWriter) {
	w.Write(pngBytes)
	chunk := make([]byte, 1<<20)
	for written := len(pngBytes); written < oversize; written += len(chunk) {
		if _, err := w.Write(chunk); err != nil {
			return
		}
	}
}

func imageServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes)
		case "/photo":
			w.Write(jpegBytes)
		case "/bitmap":
			w.Write(bmpBytes)
		case "/text":
			w.Write([]byte("<html>not an image</html>"))
		case "/huge":
			writeOversized(w)
		case "/huge-declared":
			w.Header().Set("Content-Length", strconv.Itoa(oversize))
			writeOversized(w)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLocalStoreSaveAndExists(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(filepath.Join(dir, "uploads"), "http://localhost:3000/uploads/")
	ctx := context.Background()

	exists, err := store.Exists(ctx, "a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "a.png", bytes.NewReader(pngBytes), "image/png"))

	exists, err = store.Exists(ctx, "a.png")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Equal(t, "http://localhost:3000/uploads/a.png", store.URL("a.png"))
}

func TestLocalStoreRejectsPaths(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://x")
	err := store.Save(context.Background(), "../escape.png", bytes.NewReader(pngBytes), "image/png")
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

func TestMaterializeAsIsIdempotent(t *testing.T) {
	var hits int32
	srv := imageServer(t, &hits)
	store := NewLocalStore(t.TempDir(), "http://cdn.local/uploads")
	m := NewMaterializer(store, srv.Client())
	ctx := context.Background()

	first, err := m.MaterializeAs(ctx, "fixed", srv.URL+"/ok.png")
	require.NoError(t, err)
	second, err := m.MaterializeAs(ctx, "fixed", srv.URL+"/ok.png")
	require.NoError(t, err)

	assert.Equal(t, "http://cdn.local/uploads/fixed.png", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestMaterializeUsesOpaqueNames(t *testing.T) {
	var hits int32
	srv := imageServer(t, &hits)
	store := NewLocalStore(t.TempDir(), "http://cdn.local/uploads")
	m := NewMaterializer(store, srv.Client())

	urls := m.Materialize(context.Background(), []string{srv.URL + "/ok.png", srv.URL + "/ok.png"})
	require.Len(t, urls, 2)
	assert.NotEqual(t, urls[0], urls[1])
	for _, u := range urls {
		assert.NotContains(t, u, "ok.png")
		assert.Regexp(t, `^http://cdn\.local/uploads/[A-Za-z0-9_-]+\.png$`, u)
	}
}

func TestMaterializeDegradesOnFailures(t *testing.T) {
	var hits int32
	srv := imageServer(t, &hits)
	store := NewLocalStore(t.TempDir(), "http://cdn.local/uploads")
	m := NewMaterializer(store, srv.Client())

	urls := m.Materialize(context.Background(), []string{
		srv.URL + "/missing.png",
		srv.URL + "/text",
		srv.URL + "/ok.png",
	})
	assert.Len(t, urls, 1)

	urls = m.Materialize(context.Background(), []string{srv.URL + "/missing.png"})
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestMaterializeNameFailureDegrades(t *testing.T) {
	m := NewMaterializer(NewLocalStore(t.TempDir(), "http://x"), nil)
	m.newID = func() (string, error) { return "", errors.New("no entropy") }

	assert.Empty(t, m.Materialize(context.Background(), []string{"http://unused"}))
}

type fakeObjects struct {
	keys map[string]bool
	puts int
	last []byte
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.keys[*in.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &types.NotFound{}
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts++
	f.keys[*in.Key] = true
	f.last = data
	return &s3.PutObjectOutput{}, nil
}

func TestR2Store(t *testing.T) {
	objects := &fakeObjects{keys: map[string]bool{}}
	store := &R2Store{client: objects, bucket: "media", publicURL: "https://pub.r2.dev"}
	ctx := context.Background()

	exists, err := store.Exists(ctx, "x.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "x.png", bytes.NewReader(pngBytes), "image/png"))
	exists, err = store.Exists(ctx, "x.png")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, objects.puts)
	assert.Equal(t, pngBytes, objects.last)
	assert.Equal(t, "https://pub.r2.dev/x.png", store.URL("x.png"))
}

func TestMaterializeNamesFilesBySniffedType(t *testing.T) {
	var hits int32
	srv := imageServer(t, &hits)
	dir := t.TempDir()
	m := NewMaterializer(NewLocalStore(dir, "http://cdn.local/uploads"), srv.Client())

	url, err := m.MaterializeAs(context.Background(), "shot", srv.URL+"/photo")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.local/uploads/shot.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "shot.jpg"))
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)

	urls := m.Materialize(context.Background(), []string{srv.URL + "/photo"})
	require.Len(t, urls, 1)
	assert.Regexp(t, `^http://cdn\.local/uploads/[A-Za-z0-9_-]+\.jpg$`, urls[0])
}

func TestMaterializeAsFindsExistingFileOfAnyType(t *testing.T) {
	var hits int32
	srv := imageServer(t, &hits)
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://cdn.local/uploads")
	require.NoError(t, store.Save(context.Background(), "shot.jpg", bytes.NewReader(jpegBytes), "image/jpeg"))
	m := NewMaterializer(store, srv.Client())

	url, err := m.MaterializeAs(context.Background(), "shot", srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.local/uploads/shot.jpg", url)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestMaterializeRejectsUnlistedImageTypes(t *testing.T) {
	var hits int32
	srv := imageServer(t, &hits)
	dir := t.TempDir()
	m := NewMaterializer(NewLocalStore(dir, "http://cdn.local/uploads"), srv.Client())

	_, err := m.MaterializeAs(context.Background(), "bitmap", srv.URL+"/bitmap")
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestMaterializeRejectsOversizedImages(t *testing.T) {
	for _, path := range []string{"/huge", "/huge-declared"} {
		t.Run(path, func(t *testing.T) {
			var hits int32
			srv := imageServer(t, &hits)
			dir := filepath.Join(t.TempDir(), "uploads")
			m := NewMaterializer(NewLocalStore(dir, "http://cdn.local/uploads"), srv.Client())

			_, err := m.MaterializeAs(context.Background(), "big", srv.URL+path)
			assert.ErrorIs(t, err, errImageTooLarge)
			assert.ErrorIs(t, err, apperr.ErrUpstream)

			assert.Empty(t, m.Materialize(context.Background(), []string{srv.URL + path}))

			entries, _ := os.ReadDir(dir)
			assert.Empty(t, entries)
		})
	}
}

func TestCappedReaderAllowsExactLimit(t *testing.T) {
	r := &cappedReader{r: bytes.NewReader(make([]byte, 10)), left: 10}
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, data, 10)

	r = &cappedReader{r: bytes.NewReader(make([]byte, 11)), left: 10}
	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, errImageTooLarge)
}
