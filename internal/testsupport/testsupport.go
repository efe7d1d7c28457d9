// Package testsupport 提供测试用的内存数据库和本地存储
package testsupport

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/db"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	TestBucket  = config.DefaultBucket
	TestBaseURL = "http://vault.test"
	TestSecret  = "unit-test-secret"
)

var dbSeq atomic.Int64

// OpenSQLite 每次返回一个独立的内存库
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:vault_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	conn, err := db.Open(config.DBConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// NewBucket 在临时目录里建一个本地 bucket
func NewBucket(t testing.TB) *storage.Bucket {
	t.Helper()

	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	signer, err := storage.NewURLSigner(TestSecret)
	require.NoError(t, err)
	return storage.NewBucket(TestBucket, TestBaseURL, backend, signer)
}

func Float(v float64) *float64 {
	return &v
}

type ImageOption func(*entity.Image)

func WithHash(hash string) ImageOption {
	return func(img *entity.Image) { img.PerceptualHash = &hash }
}

func WithTags(tags ...string) ImageOption {
	return func(img *entity.Image) { img.Tags = tags }
}

func WithOwner(owner string) ImageOption {
	return func(img *entity.Image) { img.CreatedBy = owner }
}

func WithCreatedAt(at time.Time) ImageOption {
	return func(img *entity.Image) { img.CreatedAt = at }
}

func WithCapture(camera, scene, lighting string) ImageOption {
	return func(img *entity.Image) {
		img.CameraType = camera
		img.SceneType = scene
		img.LightingCondition = lighting
	}
}

// SeedImage 直接写库，跳过上传流程
func SeedImage(t testing.TB, conn *gorm.DB, id, module, campaign string, opts ...ImageOption) *entity.Image {
	t.Helper()

	img := &entity.Image{
		ID:                id,
		CameraModuleID:    module,
		CameraType:        "RGB",
		TestCampaign:      campaign,
		SceneType:         "indoor_lab",
		LightingCondition: "D65",
		CaptureTime:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Tags:              []string{},
		ImageURL:          fmt.Sprintf("%s/storage/v1/object/public/%s/%s/%s/image_%s.png", TestBaseURL, TestBucket, module, campaign, id),
		CreatedBy:         "user-1",
	}
	for _, opt := range opts {
		opt(img)
	}
	require.NoError(t, conn.Create(img).Error)
	return img
}

func SeedMetric(t testing.TB, conn *gorm.DB, imageID string, scores entity.MetricScores) *entity.ImageMetric {
	t.Helper()

	metric := &entity.ImageMetric{ImageID: imageID, MetricScores: scores}
	require.NoError(t, conn.Create(metric).Error)
	return metric
}
