package dao

import (
	"context"
	"fmt"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/db"
	"gorm.io/gorm"
)

type ImageMetricDAO struct {
	DB *gorm.DB
}

func NewImageMetricDAO() *ImageMetricDAO {
	return &ImageMetricDAO{
		DB: db.DB,
	}
}

func (d *ImageMetricDAO) Save(ctx context.Context, metric *entity.ImageMetric) error {
	if metric == nil {
		return ErrNilEntity
	}
	if metric.ImageID == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save image metric failed: %w", err)
	}
	return dbConn.Create(metric).Error
}

func (d *ImageMetricDAO) FindByImageID(ctx context.Context, imageID string) ([]entity.ImageMetric, error) {
	if imageID == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find image metrics failed: %w", err)
	}

	var metrics []entity.ImageMetric
	err = dbConn.Where("image_id = ?", imageID).Order("created_at ASC, id ASC").Find(&metrics).Error
	return metrics, err
}
