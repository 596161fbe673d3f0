package local

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/util"
)

// FilesPath is the API route that serves signed local download URLs.
const FilesPath = "/api/v1/files"

var ErrInvalidSignature = errors.New("invalid or expired download signature")

// Store implements object.Store using the local filesystem.
type Store struct {
	baseDir    string
	publicBase string
	signingKey []byte
	now        func() time.Time
}

// New creates a local object store rooted at baseDir. Download URLs are served under
// publicBase+FilesPath and signed with signingKey.
func New(baseDir, publicBase string, signingKey []byte) *Store {
	return &Store{
		baseDir:    baseDir,
		publicBase: strings.TrimRight(publicBase, "/"),
		signingKey: signingKey,
		now:        time.Now,
	}
}

// Put writes the reader to disk under the user's namespace with a random prefix.
func (s *Store) Put(ctx context.Context, userID, fileName, contentType string, r io.Reader) (object.Object, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return object.Object{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	storageUserKey := util.HashUserKey(userID)
	finalName := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizedName)

	dirPath := filepath.Join(s.baseDir, storageUserKey)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return object.Object{}, fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dirPath, finalName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Object{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return object.Object{}, fmt.Errorf("write body: %w", err)
	}

	return object.Object{
		Key:         filepath.ToSlash(filepath.Join(storageUserKey, finalName)),
		Size:        written,
		ContentType: contentType,
	}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// DownloadURL returns an HMAC-signed URL that FilesPath accepts until ttl elapses.
func (s *Store) DownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	exp := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("key", key)
	q.Set("name", fileName)
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, fileName, exp))
	return s.publicBase + FilesPath + "?" + q.Encode(), nil
}

// VerifyDownload checks a signed download request and returns the storage key.
func (s *Store) VerifyDownload(key, fileName, expRaw, sig string) error {
	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if s.now().Unix() > exp {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(key, fileName, exp))) {
		return ErrInvalidSignature
	}
	return nil
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *Store) sign(key, fileName string, exp int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte{0})
	mac.Write([]byte(fileName))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ object.Store = (*Store)(nil)
