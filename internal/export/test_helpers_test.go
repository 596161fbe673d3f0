package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/content"
	"resume-builder/internal/documents"
	"resume-builder/internal/shared/retry"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/templates"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(ctx context.Context, userID, fileName, contentType string, r io.Reader) (object.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := userID + "/" + string(rune('a'+m.seq)) + "_" + fileName
	m.objects[key] = data
	return object.Object{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) DownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", object.ErrNotFound
	}
	return "https://files.example/" + key + "?ttl=" + ttl.String(), nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeRenderer struct {
	mu       sync.Mutex
	calls    int
	failures int
	lastHTML string
	// before runs inside the render call, after the HTML is captured.
	before func()
}

func (f *fakeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.lastHTML = string(html)
	fail := f.calls <= f.failures
	before := f.before
	f.mu.Unlock()
	if before != nil {
		before()
	}
	if fail {
		return nil, errors.New("chrome crashed")
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fixture struct {
	docs     *documents.Service
	repo     *MemoryRepo
	store    *memStore
	svc      *Service
	proc     *Processor
	renderer *fakeRenderer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := templates.Default()
	require.NoError(t, err)

	f := &fixture{
		repo:     NewMemoryRepo(),
		store:    newMemStore(),
		renderer: &fakeRenderer{},
		now:      time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.docs = documents.NewService(documents.NewMemoryRepo(), catalog)
	f.docs.Now = clock

	f.svc = NewService(f.repo, f.docs, f.store)
	f.svc.Now = clock

	f.proc = NewProcessor(f.repo, f.docs, f.store, f.renderer)
	f.proc.Now = clock
	f.proc.TTL = 24 * time.Hour
	f.proc.Verify = func(pdf []byte) (int, error) { return 2, nil }
	f.proc.Retry = retry.DefaultPolicy()
	f.proc.Retry.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return f
}

func (f *fixture) createResume(t *testing.T, userID, title string) documents.Document {
	t.Helper()
	doc, err := f.docs.Create(context.Background(), userID, documents.CreateInput{Kind: content.KindResume, Title: title})
	require.NoError(t, err)
	return doc
}

func (f *fixture) createJob(t *testing.T, userID string) Job {
	t.Helper()
	doc := f.createResume(t, userID, "My CV")
	job, err := f.svc.Create(context.Background(), userID, doc.ID, CreateInput{})
	require.NoError(t, err)
	return job
}
