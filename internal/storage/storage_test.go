package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmllt/kban/internal/config"
	"github.com/gmllt/kban/internal/logger"
)

// exerciseStore checks the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "data")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "data", []byte(`[]`)))
	got, err := s.Get(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	board := `[{"id":"lane-1","title":"Todo","cards":[]}]`
	require.NoError(t, s.Put(ctx, "data", []byte(board)))
	got, err = s.Get(ctx, "data")
	require.NoError(t, err)
	assert.JSONEq(t, board, string(got))

	_, err = s.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	t.Run("stored bytes are copied", func(t *testing.T) {
		buf := []byte("abc")
		require.NoError(t, s.Put(context.Background(), "k", buf))
		buf[0] = 'z'
		got, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	_, err = os.Stat(filepath.Join(dir, "data.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}

	_, err = NewFileStore("")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), config.RedisConfig{Addr: mr.Addr(), Prefix: "kban:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)

	v, err := mr.Get("kban:data")
	require.NoError(t, err)
	assert.Contains(t, v, "lane-1")
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kban.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	got, err := reopened.Get(context.Background(), "data")
	require.NoError(t, err)
	assert.Contains(t, string(got), "lane-1")
}

// fakeS3 serves the path-style subset of the S3 API the store uses.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if parts[0] != f.bucket {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>no bucket</Message></Error>`)
		}
		return
	}
	if len(parts) == 1 {
		w.WriteHeader(http.StatusOK)
		return
	}
	key := parts[1]
	switch r.Method {
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func s3Config(endpoint, bucket string) config.S3Config {
	return config.S3Config{
		Endpoint:        endpoint,
		Bucket:          bucket,
		Region:          "us-east-1",
		AccessKey:       "minio",
		SecretKey:       "minio123",
		UsePathStyle:    true,
		DisableChecksum: true,
	}
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{bucket: "kanban", objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Store(context.Background(), s3Config(srv.URL, "kanban"), logger.Discard())
	require.NoError(t, err)
	exerciseStore(t, s)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.objects, "data.json")
}

func TestS3StoreMissingBucket(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{bucket: "kanban", objects: map[string][]byte{}})
	t.Cleanup(srv.Close)

	_, err := NewS3Store(context.Background(), s3Config(srv.URL, "other"), logger.Discard())
	assert.Error(t, err)
}

func TestNewS3ClientRequiresEndpoint(t *testing.T) {
	_, err := NewS3Client(context.Background(), config.S3Config{Bucket: "kanban"})
	assert.EqualError(t, err, "S3 endpoint is required")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Storage{Backend: "memory", Key: "data"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.Storage{Backend: "file", Key: "data", File: config.FileConfig{Dir: t.TempDir()}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, config.Storage{Backend: "redis", Key: "data", Redis: config.RedisConfig{Addr: mr.Addr()}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	s.Close()

	_, err = Open(ctx, config.Storage{Backend: "etcd"}, nil)
	assert.Error(t, err)
}
