package entity

import (
	"time"

	"gorm.io/datatypes"
)

type Image struct {
	ID                string                      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CameraModuleID    string                      `gorm:"column:camera_module_id;type:varchar(255);not null;index" json:"camera_module_id"`
	CameraType        string                      `gorm:"column:camera_type;type:varchar(32);not null;index" json:"camera_type"`
	TestCampaign      string                      `gorm:"column:test_campaign;type:varchar(255);not null;index" json:"test_campaign"`
	SceneType         string                      `gorm:"column:scene_type;type:varchar(64);not null" json:"scene_type"`
	LightingCondition string                      `gorm:"column:lighting_condition;type:varchar(64);not null" json:"lighting_condition"`
	CaptureTime       time.Time                   `gorm:"column:capture_time;not null;index" json:"capture_time"`
	Tags              datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	Notes             string                      `gorm:"column:notes;type:text" json:"notes"`
	ImageURL          string                      `gorm:"column:image_url;type:text;not null" json:"image_url"`
	PerceptualHash    *string                     `gorm:"column:perceptual_hash;type:varchar(64);index" json:"perceptual_hash"`
	CreatedBy         string                      `gorm:"column:created_by;type:varchar(64);not null;index" json:"created_by"`
	CreatedAt         time.Time                   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Metrics   []ImageMetric `gorm:"foreignKey:ImageID;references:ID" json:"image_metrics,omitempty"`
	SignedURL string        `gorm:"-" json:"signed_url,omitempty"`
}

func (Image) TableName() string {
	return "images"
}

// FirstMetric 返回最早的一条指标记录，没有时返回 nil
func (i *Image) FirstMetric() *ImageMetric {
	if i == nil || len(i.Metrics) == 0 {
		return nil
	}
	return &i.Metrics[0]
}

// ImageMetadata 是上传接口 metadata 字段的结构
type ImageMetadata struct {
	CameraModuleID    string     `json:"camera_module_id" binding:"required"`
	CameraType        string     `json:"camera_type" binding:"required"`
	TestCampaign      string     `json:"test_campaign" binding:"required"`
	SceneType         string     `json:"scene_type" binding:"required"`
	LightingCondition string     `json:"lighting_condition" binding:"required"`
	Tags              []string   `json:"tags"`
	Notes             string     `json:"notes"`
	CaptureTime       *time.Time `json:"capture_time"`
}

// TagUpdateRequest 是 update-tags 接口的请求体
type TagUpdateRequest struct {
	ImageID string    `json:"image_id"`
	Tags    *[]string `json:"tags"`
	Notes   *string   `json:"notes"`
	Action  string    `json:"action"`
}
