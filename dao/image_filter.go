package dao

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"gorm.io/gorm"
)

func compactValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// whereMatch 单值用 =，多值用 IN，空列表不加条件
func whereMatch(dbConn *gorm.DB, column string, values []string) *gorm.DB {
	values = compactValues(values)
	switch len(values) {
	case 0:
		return dbConn
	case 1:
		return dbConn.Where(column+" = ?", values[0])
	default:
		return dbConn.Where(column+" IN ?", values)
	}
}

// whereTagsOverlap 标签集合与输入有交集即命中
func whereTagsOverlap(dbConn *gorm.DB, tags []string) (*gorm.DB, error) {
	tags = compactValues(tags)
	if len(tags) == 0 {
		return dbConn, nil
	}

	switch dbConn.Dialector.Name() {
	case "postgres":
		return dbConn.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(images.tags) AS tag(value) WHERE tag.value IN ?)", tags), nil
	case "mysql":
		raw, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("encode tag filter failed: %w", err)
		}
		return dbConn.Where("JSON_OVERLAPS(images.tags, CAST(? AS JSON))", string(raw)), nil
	case "sqlite":
		return dbConn.Where("EXISTS (SELECT 1 FROM json_each(images.tags) WHERE json_each.value IN ?)", tags), nil
	default:
		return nil, fmt.Errorf("tag filter not supported for dialect %s", dbConn.Dialector.Name())
	}
}

// applyImageCriteria 把稀疏的过滤条件组合到查询上
func applyImageCriteria(dbConn *gorm.DB, criteria entity.ImageCriteria) (*gorm.DB, error) {
	dbConn = whereMatch(dbConn, "images.camera_module_id", criteria.CameraModuleIDs)
	dbConn = whereMatch(dbConn, "images.camera_type", criteria.CameraTypes)
	dbConn = whereMatch(dbConn, "images.scene_type", criteria.SceneTypes)
	dbConn = whereMatch(dbConn, "images.lighting_condition", criteria.LightingConditions)
	dbConn = whereMatch(dbConn, "images.test_campaign", criteria.TestCampaigns)

	dbConn, err := whereTagsOverlap(dbConn, criteria.Tags)
	if err != nil {
		return nil, err
	}

	if criteria.CaptureTimeStart != nil {
		dbConn = dbConn.Where("images.capture_time >= ?", criteria.CaptureTimeStart.UTC())
	}
	if criteria.CaptureTimeEnd != nil {
		dbConn = dbConn.Where("images.capture_time <= ?", criteria.CaptureTimeEnd.UTC())
	}
	return dbConn, nil
}

var metricRangeColumns = map[string]string{
	"sharpness":         "image_metrics.sharpness",
	"noise":             "image_metrics.noise",
	"flare_index":       "image_metrics.flare_index",
	"motion_blur_score": "image_metrics.motion_blur_score",
}

// applyMetricRanges 显式给出的区间要求指标非空；未给出的默认 [0,1] 且允许为空
func applyMetricRanges(dbConn *gorm.DB, ranges []entity.MetricRange) (*gorm.DB, error) {
	for _, r := range ranges {
		column, ok := metricRangeColumns[r.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, r.Name)
		}

		lo, hi := 0.0, 1.0
		if r.Min != nil {
			lo = *r.Min
		}
		if r.Max != nil {
			hi = *r.Max
		}

		if r.IsSet() {
			dbConn = dbConn.Where(column+" IS NOT NULL AND "+column+" BETWEEN ? AND ?", lo, hi)
		} else {
			dbConn = dbConn.Where("("+column+" IS NULL OR "+column+" BETWEEN ? AND ?)", lo, hi)
		}
	}
	return dbConn, nil
}
