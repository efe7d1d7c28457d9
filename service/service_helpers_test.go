package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/internal/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustBuildFileHeader(t *testing.T, fieldName, fileName string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("multipart form field %s is empty", fieldName)
	}
	return files[0]
}

type testEnv struct {
	conn   *gorm.DB
	bucket *storage.Bucket
	images *dao.ImageDAO
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := testsupport.OpenSQLite(t)
	return &testEnv{
		conn:   conn,
		bucket: testsupport.NewBucket(t),
		images: &dao.ImageDAO{DB: conn},
	}
}

func (e *testEnv) uploadService(ids ...string) *ImageUploadService {
	next := 0
	return &ImageUploadService{
		ImageDAO: e.images,
		Store:    e.bucket,
		NewID: func() string {
			id := ids[next%len(ids)]
			next++
			return id
		},
		Now: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func objectExists(t *testing.T, bucket *storage.Bucket, objectPath string) bool {
	t.Helper()
	rc, err := bucket.Open(context.Background(), objectPath)
	if err != nil {
		require.True(t, errors.Is(err, storage.ErrObjectNotFound), "unexpected error: %v", err)
		return false
	}
	_ = rc.Close()
	return true
}

// flakyStore 包一层真实 bucket，用来注入失败
type flakyStore struct {
	ObjectStore
	signErr   error
	removeErr error
	removed   []string
}

func (s *flakyStore) CreateSignedURL(objectPath string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return s.ObjectStore.CreateSignedURL(objectPath, ttl)
}

func (s *flakyStore) Remove(ctx context.Context, objectPaths []string) (int, error) {
	s.removed = append(s.removed, objectPaths...)
	if s.removeErr != nil {
		return 0, s.removeErr
	}
	return s.ObjectStore.Remove(ctx, objectPaths)
}
