package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/panyam/fanin"
	"github.com/panyam/fanin/internal/logger"
)

type memObject struct {
	content []byte
	updated time.Time
}

// memStore is an in-memory Store for tests.
type memStore struct {
	mu       sync.Mutex
	objects  map[Address]memObject
	failKeys map[string]error
	now      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		objects:  map[Address]memObject{},
		failKeys: map[string]error{},
		now:      time.Date(2015, 12, 21, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) put(addr Address, content string, updated time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[addr] = memObject{content: []byte(content), updated: updated}
}

func (s *memStore) has(addr Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[addr]
	return ok
}

func (s *memStore) NewReader(ctx context.Context, addr Address) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failKeys[addr.Key]; err != nil {
		return nil, 0, err
	}
	obj, ok := s.objects[addr]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	return io.NopCloser(bytes.NewReader(obj.content)), int64(len(obj.content)), nil
}

type memWriter struct {
	ctx   context.Context
	store *memStore
	addr  Address
	buf   bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.store.put(w.addr, w.buf.String(), w.store.now)
	return nil
}

func (s *memStore) NewWriter(ctx context.Context, addr Address) io.WriteCloser {
	return &memWriter{ctx: ctx, store: s, addr: addr}
}

func (s *memStore) Delete(ctx context.Context, addr Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failKeys[addr.Key]; err != nil {
		return err
	}
	if _, ok := s.objects[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	delete(s.objects, addr)
	return nil
}

func (s *memStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ObjectInfo
	for addr, obj := range s.objects {
		if addr.Bucket == bucket && strings.HasPrefix(addr.Key, prefix) {
			out = append(out, ObjectInfo{Address: addr, Size: int64(len(obj.content)), Updated: obj.updated})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Key < out[j].Address.Key })
	return out, nil
}

func mustAddress(t *testing.T, bucket string, parts ...string) Address {
	t.Helper()
	addr, err := NewAddress(bucket, parts...)
	require.NoError(t, err)
	return addr
}

func newTestClient(t *testing.T, store Store) *Client {
	return NewClient(store,
		WithLogger(&logger.Logger{SugaredLogger: zaptest.NewLogger(t).Sugar()}),
		WithConcurrency(3))
}

func TestNewAddress(t *testing.T) {
	addr := mustAddress(t, "bucket", "logs", "2015-12-21")
	assert.Equal(t, "logs/2015-12-21", addr.Key)
	assert.Equal(t, "gs://bucket/logs/2015-12-21", addr.String())

	url, err := addr.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket/logs/2015-12-21", url)

	_, err = NewAddress(" ", "k")
	assert.ErrorIs(t, err, ErrBlankBucket)
	_, err = NewAddress("b")
	assert.ErrorIs(t, err, ErrBlankKey)
	_, err = NewAddress("b", "a", "")
	assert.ErrorIs(t, err, ErrBlankKey)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("gs://bucket/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, Address{Bucket: "bucket", Key: "a/b.txt"}, addr)

	for _, bad := range []string{"s3://b/k", "gs://bucket", "gs:///k", "gs://b/"} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, bad)
	}
}

func TestListingFilters(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2015, 12, d, 0, 0, 0, 0, time.UTC) }
	listing := &Listing{Bucket: "b", Prefix: "p", Objects: []ObjectInfo{
		{Address: Address{"b", "p/1"}, Updated: day(20)},
		{Address: Address{"b", "p/2"}, Updated: day(21)},
		{Address: Address{"b", "p/3"}, Updated: day(22)},
	}}

	assert.Equal(t, []Address{{"b", "p/1"}}, listing.Before(day(21)).Addresses())
	assert.Equal(t, []Address{{"b", "p/2"}, {"b", "p/3"}}, listing.After(day(21)).Addresses())
	assert.Equal(t, []Address{{"b", "p/2"}}, listing.Between(day(21), day(22)).Addresses())
	assert.Len(t, listing.Objects, 3, "Filters must not modify the listing")
}

func TestDownloadString(t *testing.T) {
	store := newMemStore()
	addr := mustAddress(t, "b", "greeting")
	store.put(addr, "hello world", store.now)
	client := newTestClient(t, store)
	ctx := context.Background()

	content, err := client.DownloadString(ctx, addr, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)

	content, err = client.DownloadString(ctx, addr, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", content, "Oversized objects are truncated")

	_, err = client.DownloadString(ctx, mustAddress(t, "b", "missing"), 100)
	assert.ErrorIs(t, err, ErrNotFound)

	empty := mustAddress(t, "b", "empty")
	store.put(empty, "", store.now)
	_, err = client.DownloadString(ctx, empty, 100)
	assert.ErrorIs(t, err, ErrEmptyObject)
}

func TestUpload(t *testing.T) {
	store := newMemStore()
	client := newTestClient(t, store)
	ctx := context.Background()
	addr := mustAddress(t, "b", "up")

	require.NoError(t, client.Upload(ctx, addr, 3, strings.NewReader("abcdef")))
	content, err := client.DownloadString(ctx, addr, 10)
	require.NoError(t, err)
	assert.Equal(t, "abc", content)

	short := mustAddress(t, "b", "short")
	err = client.Upload(ctx, short, 10, strings.NewReader("abc"))
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, store.has(short), "A short upload must not be committed")
}

func TestDownloadAllPartitionsResults(t *testing.T) {
	store := newMemStore()
	var addrs []Address
	for i := range 10 {
		addr := mustAddress(t, "b", fmt.Sprintf("obj-%d", i))
		addrs = append(addrs, addr)
		if i%4 != 0 {
			store.put(addr, fmt.Sprintf("content-%d", i), store.now)
		}
	}
	boom := errors.New("backend down")
	store.failKeys["obj-1"] = boom

	fi, err := newTestClient(t, store).DownloadAll(context.Background(), addrs, 64)
	require.NoError(t, err)
	result := fi.WaitForAll()

	var contents []string
	for _, d := range result.Successes() {
		contents = append(contents, d.Content)
	}
	assert.ElementsMatch(t, []string{"content-2", "content-3", "content-5", "content-6", "content-7", "content-9"}, contents)
	require.Len(t, result.Failures(), 4)
	assert.ErrorIs(t, result.Err(), boom)
	assert.ErrorIs(t, result.Err(), ErrNotFound)
}

func TestDownloadAllEmpty(t *testing.T) {
	_, err := newTestClient(t, newMemStore()).DownloadAll(context.Background(), nil, 10)
	assert.ErrorIs(t, err, fanin.ErrNoOperations)
}

func TestDownloadAllWithCancelledContext(t *testing.T) {
	store := newMemStore()
	addr := mustAddress(t, "b", "k")
	store.put(addr, "v", store.now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fi, err := newTestClient(t, store).DownloadAll(ctx, []Address{addr, addr}, 10)
	require.NoError(t, err)

	result := fi.WaitForAll()
	assert.Empty(t, result.Successes())
	require.Len(t, result.Failures(), 2)
	for _, err := range result.Failures() {
		assert.ErrorIs(t, err, fanin.ErrCancelled)
	}
}

func TestUploadAllAndDeleteAll(t *testing.T) {
	store := newMemStore()
	client := newTestClient(t, store)
	ctx := context.Background()

	var uploads []Upload
	for i := range 5 {
		body := fmt.Sprintf("body-%d", i)
		uploads = append(uploads, Upload{
			Address: mustAddress(t, "b", "batch", fmt.Sprintf("%d", i)),
			Size:    int64(len(body)),
			Body:    strings.NewReader(body),
		})
	}
	fi, err := client.UploadAll(ctx, uploads)
	require.NoError(t, err)
	uploaded := fi.WaitForAll()
	assert.Len(t, uploaded.Successes(), 5)
	assert.Empty(t, uploaded.Failures())

	listing, err := client.List(ctx, "b", "batch/")
	require.NoError(t, err)
	require.Len(t, listing.Objects, 5)

	store.failKeys["batch/3"] = errors.New("permission denied")
	deletions, err := client.DeleteAll(ctx, listing)
	require.NoError(t, err)
	deleted := deletions.WaitForAll()
	assert.Len(t, deleted.Successes(), 4)
	assert.Equal(t, "[permission denied]", deleted.FailureMessages())
	assert.True(t, store.has(mustAddress(t, "b", "batch", "3")))
	assert.False(t, store.has(mustAddress(t, "b", "batch", "0")))
}

func TestListRequiresBucket(t *testing.T) {
	_, err := newTestClient(t, newMemStore()).List(context.Background(), "", "p")
	assert.ErrorIs(t, err, ErrBlankBucket)
}
