package local

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/shared/storage/object"
)

func TestPutOpenDelete(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080", []byte("k"))
	ctx := context.Background()

	obj, err := store.Put(ctx, "user-1", "resume.pdf", "application/pdf", bytes.NewReader([]byte("%PDF-1.7 body")))
	require.NoError(t, err)
	require.Equal(t, int64(len("%PDF-1.7 body")), obj.Size)
	require.True(t, strings.HasSuffix(obj.Key, "_resume.pdf"))

	rc, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "%PDF-1.7 body", string(data))

	require.NoError(t, store.Delete(ctx, obj.Key))
	require.NoError(t, store.Delete(ctx, obj.Key))
	_, err = store.Open(ctx, obj.Key)
	require.ErrorIs(t, err, object.ErrNotFound)
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir(), "", nil)
	_, err := store.Open(context.Background(), "../etc/passwd")
	require.Error(t, err)
	require.Error(t, store.Delete(context.Background(), "/abs"))
}

func TestDownloadURLSignature(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/", []byte("secret"))
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	raw, err := store.DownloadURL(context.Background(), "abc/file.pdf", "resume.pdf", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, FilesPath, u.Path)
	q := u.Query()

	require.NoError(t, store.VerifyDownload(q.Get("key"), q.Get("name"), q.Get("exp"), q.Get("sig")))
	require.ErrorIs(t, store.VerifyDownload("abc/other.pdf", q.Get("name"), q.Get("exp"), q.Get("sig")), ErrInvalidSignature)

	store.now = func() time.Time { return fixed.Add(2 * time.Minute) }
	require.ErrorIs(t, store.VerifyDownload(q.Get("key"), q.Get("name"), q.Get("exp"), q.Get("sig")), ErrInvalidSignature)
}
