package dao

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/db"
	"gorm.io/gorm"
)

type ImageDAO struct {
	DB *gorm.DB
}

func NewImageDAO() *ImageDAO {
	return &ImageDAO{
		DB: db.DB,
	}
}

func preloadMetrics(dbConn *gorm.DB) *gorm.DB {
	return dbConn.Preload("Metrics", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("image_metrics.created_at ASC, image_metrics.id ASC")
	})
}

func (d *ImageDAO) Save(ctx context.Context, image *entity.Image) error {
	if image == nil {
		return ErrNilEntity
	}
	if strings.TrimSpace(image.ID) == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save image failed: %w", err)
	}
	return dbConn.Create(image).Error
}

// FindOwnedByID 只返回属于 owner 的记录，否则 gorm.ErrRecordNotFound
func (d *ImageDAO) FindOwnedByID(ctx context.Context, id, owner string) (*entity.Image, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find image by id failed: %w", err)
	}

	var image entity.Image
	err = dbConn.Where("id = ? AND created_by = ?", id, owner).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// UpdateOwned 按 owner 更新部分字段
func (d *ImageDAO) UpdateOwned(ctx context.Context, id, owner string, updates map[string]interface{}) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if len(updates) == 0 {
		return nil
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("update image failed: %w", err)
	}

	result := dbConn.Model(&entity.Image{}).
		Where("id = ? AND created_by = ?", id, owner).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update image failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindAll 分页查询，按创建时间倒序
func (d *ImageDAO) FindAll(ctx context.Context, criteria entity.ImageCriteria, page entity.PageParams) ([]entity.Image, int64, error) {
	var images []entity.Image
	var total int64

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find images failed: %w", err)
	}

	query, err := applyImageCriteria(dbConn.Model(&entity.Image{}), criteria)
	if err != nil {
		return nil, 0, err
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count images failed: %w", err)
	}

	offset, limit := pagination(page)
	err = preloadMetrics(query).
		Order("images.created_at DESC, images.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&images).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query images failed: %w", err)
	}

	return images, total, nil
}

// FindWithMetricRanges 关联 image_metrics 做区间过滤，不分页，每张图只返回一次
func (d *ImageDAO) FindWithMetricRanges(ctx context.Context, criteria entity.ImageCriteria, ranges []entity.MetricRange) ([]entity.Image, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find images with metrics failed: %w", err)
	}

	sub := dbConn.Model(&entity.ImageMetric{}).
		Select("image_metrics.image_id").
		Joins("JOIN images ON images.id = image_metrics.image_id")
	sub, err = applyImageCriteria(sub, criteria)
	if err != nil {
		return nil, err
	}
	sub, err = applyMetricRanges(sub, ranges)
	if err != nil {
		return nil, err
	}

	var images []entity.Image
	err = preloadMetrics(dbConn.Model(&entity.Image{})).
		Where("images.id IN (?)", sub).
		Order("images.created_at DESC, images.id DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("query images with metrics failed: %w", err)
	}
	return images, nil
}

// FindForExport 导出用，不分页
func (d *ImageDAO) FindForExport(ctx context.Context, criteria entity.ImageCriteria) ([]entity.Image, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find images for export failed: %w", err)
	}

	query, err := applyImageCriteria(dbConn.Model(&entity.Image{}), criteria)
	if err != nil {
		return nil, err
	}

	var images []entity.Image
	err = preloadMetrics(query).
		Order("images.created_at DESC, images.id DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("query images for export failed: %w", err)
	}
	return images, nil
}

// FindHashed 返回有感知哈希的记录，按创建时间正序
func (d *ImageDAO) FindHashed(ctx context.Context) ([]entity.Image, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find hashed images failed: %w", err)
	}

	var images []entity.Image
	err = dbConn.
		Where("perceptual_hash IS NOT NULL AND perceptual_hash <> ''").
		Order("created_at ASC, id ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("query hashed images failed: %w", err)
	}
	return images, nil
}

// DeleteByIDs 在一个事务里先删指标再删图片，返回删除的图片数
func (d *ImageDAO) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return 0, fmt.Errorf("delete images failed: %w", err)
	}

	var deleted int64
	err = dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id IN ?", ids).Delete(&entity.ImageMetric{}).Error; err != nil {
			return fmt.Errorf("delete image metrics failed: %w", err)
		}
		result := tx.Where("id IN ?", ids).Delete(&entity.Image{})
		if result.Error != nil {
			return fmt.Errorf("delete images failed: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
