package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var MetricNames = []string{
	"sharpness",
	"noise",
	"flare_index",
	"chromatic_aberration",
	"white_balance_error",
	"exposure_level",
	"focus_score",
	"motion_blur_score",
	"dynamic_range",
	"contrast_ratio",
	"edge_acutance",
	"saturation_deviation",
	"eye_tracking_accuracy",
	"depth_map_quality",
	"passthrough_alignment_error",
}

// MetricScores 15 项质量分数，未测量的为 nil
type MetricScores struct {
	Sharpness                 *float64 `gorm:"column:sharpness" json:"sharpness"`
	Noise                     *float64 `gorm:"column:noise" json:"noise"`
	FlareIndex                *float64 `gorm:"column:flare_index" json:"flare_index"`
	ChromaticAberration       *float64 `gorm:"column:chromatic_aberration" json:"chromatic_aberration"`
	WhiteBalanceError         *float64 `gorm:"column:white_balance_error" json:"white_balance_error"`
	ExposureLevel             *float64 `gorm:"column:exposure_level" json:"exposure_level"`
	FocusScore                *float64 `gorm:"column:focus_score" json:"focus_score"`
	MotionBlurScore           *float64 `gorm:"column:motion_blur_score" json:"motion_blur_score"`
	DynamicRange              *float64 `gorm:"column:dynamic_range" json:"dynamic_range"`
	ContrastRatio             *float64 `gorm:"column:contrast_ratio" json:"contrast_ratio"`
	EdgeAcutance              *float64 `gorm:"column:edge_acutance" json:"edge_acutance"`
	SaturationDeviation       *float64 `gorm:"column:saturation_deviation" json:"saturation_deviation"`
	EyeTrackingAccuracy       *float64 `gorm:"column:eye_tracking_accuracy" json:"eye_tracking_accuracy"`
	DepthMapQuality           *float64 `gorm:"column:depth_map_quality" json:"depth_map_quality"`
	PassthroughAlignmentError *float64 `gorm:"column:passthrough_alignment_error" json:"passthrough_alignment_error"`
}

// Value 按列名取分数；名称未知时 ok 为 false
func (m *MetricScores) Value(name string) (value *float64, ok bool) {
	if m == nil {
		return nil, false
	}
	switch name {
	case "sharpness":
		return m.Sharpness, true
	case "noise":
		return m.Noise, true
	case "flare_index":
		return m.FlareIndex, true
	case "chromatic_aberration":
		return m.ChromaticAberration, true
	case "white_balance_error":
		return m.WhiteBalanceError, true
	case "exposure_level":
		return m.ExposureLevel, true
	case "focus_score":
		return m.FocusScore, true
	case "motion_blur_score":
		return m.MotionBlurScore, true
	case "dynamic_range":
		return m.DynamicRange, true
	case "contrast_ratio":
		return m.ContrastRatio, true
	case "edge_acutance":
		return m.EdgeAcutance, true
	case "saturation_deviation":
		return m.SaturationDeviation, true
	case "eye_tracking_accuracy":
		return m.EyeTrackingAccuracy, true
	case "depth_map_quality":
		return m.DepthMapQuality, true
	case "passthrough_alignment_error":
		return m.PassthroughAlignmentError, true
	default:
		return nil, false
	}
}

type ImageMetric struct {
	ID           string `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ImageID      string `gorm:"column:image_id;type:varchar(36);not null;index" json:"image_id"`
	MetricScores `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ImageMetric) TableName() string {
	return "image_metrics"
}

// BeforeCreate GORM hook
func (m *ImageMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MetricsIngestRequest 是 metrics-ingest 接口的请求体
type MetricsIngestRequest struct {
	ImageID string        `json:"image_id"`
	Metrics *MetricScores `json:"metrics"`
}
