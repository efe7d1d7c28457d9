package service

import (
	"context"
	"testing"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTagServiceUpdate(t *testing.T) {
	env := newTestEnv(t)
	svc := &TagService{ImageDAO: env.images, Now: time.Now}
	ctx := context.Background()
	testsupport.SeedImage(t, env.conn, "img-1", "cam", "run", testsupport.WithTags("a", "b"))

	t.Run("add is a set union", func(t *testing.T) {
		tags := []string{"b", "c"}
		image, err := svc.Update(ctx, "user-1", entity.TagUpdateRequest{ImageID: "img-1", Tags: &tags, Action: "add"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, []string(image.Tags))
	})

	t.Run("remove", func(t *testing.T) {
		tags := []string{"a"}
		image, err := svc.Update(ctx, "user-1", entity.TagUpdateRequest{ImageID: "img-1", Tags: &tags, Action: "remove"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, []string(image.Tags))
	})

	t.Run("notes only keeps tags", func(t *testing.T) {
		notes := "lens smudge"
		image, err := svc.Update(ctx, "user-1", entity.TagUpdateRequest{ImageID: "img-1", Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, "lens smudge", image.Notes)
		assert.Equal(t, []string{"b", "c"}, []string(image.Tags))
	})

	t.Run("replace is the default action", func(t *testing.T) {
		tags := []string{"z"}
		image, err := svc.Update(ctx, "user-1", entity.TagUpdateRequest{ImageID: "img-1", Tags: &tags})
		require.NoError(t, err)
		assert.Equal(t, []string{"z"}, []string(image.Tags))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.Update(ctx, "user-1", entity.TagUpdateRequest{})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = svc.Update(ctx, "user-1", entity.TagUpdateRequest{ImageID: "img-1", Action: "merge"})
		assert.ErrorIs(t, err, dao.ErrInvalidAction)

		_, err = svc.Update(ctx, "intruder", entity.TagUpdateRequest{ImageID: "img-1"})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestMetricsServiceIngest(t *testing.T) {
	env := newTestEnv(t)
	svc := &MetricsService{ImageDAO: env.images, MetricDAO: &dao.ImageMetricDAO{DB: env.conn}}
	ctx := context.Background()
	testsupport.SeedImage(t, env.conn, "img-1", "cam", "run")

	metric, err := svc.Ingest(ctx, "user-1", entity.MetricsIngestRequest{
		ImageID: "img-1",
		Metrics: &entity.MetricScores{Sharpness: testsupport.Float(0.42), DepthMapQuality: testsupport.Float(0.8)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, metric.ID)
	assert.Equal(t, "img-1", metric.ImageID)

	stored, err := svc.MetricDAO.FindByImageID(ctx, "img-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.8, *stored[0].DepthMapQuality, 1e-9)

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Ingest(ctx, "user-1", entity.MetricsIngestRequest{ImageID: "img-1"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.EqualError(t, err, "Missing image_id or metrics")
	})

	t.Run("not owner", func(t *testing.T) {
		_, err := svc.Ingest(ctx, "user-2", entity.MetricsIngestRequest{ImageID: "img-1", Metrics: &entity.MetricScores{}})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
