package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"gorm.io/gorm"
)

type MetricsService struct {
	ImageDAO  *dao.ImageDAO
	MetricDAO *dao.ImageMetricDAO
}

func NewMetricsService() *MetricsService {
	return &MetricsService{
		ImageDAO:  dao.NewImageDAO(),
		MetricDAO: dao.NewImageMetricDAO(),
	}
}

// Ingest 为调用方自己的图片追加一条指标记录
func (s *MetricsService) Ingest(ctx context.Context, owner string, req entity.MetricsIngestRequest) (*entity.ImageMetric, error) {
	imageID := strings.TrimSpace(req.ImageID)
	if imageID == "" || req.Metrics == nil {
		return nil, invalidRequest("Missing image_id or metrics")
	}

	if _, err := s.ImageDAO.FindOwnedByID(ctx, imageID, owner); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, operationError("Failed to fetch image", err)
	}

	metric := &entity.ImageMetric{
		ImageID:      imageID,
		MetricScores: *req.Metrics,
	}
	if err := s.MetricDAO.Save(ctx, metric); err != nil {
		serviceLogger().Error("insert metrics failed", "image_id", imageID, "error", err)
		return nil, operationError("Failed to insert metrics", err)
	}
	return metric, nil
}
