package entity

import "time"

// ImageQueryParams 对应 query-images 的查询字符串
type ImageQueryParams struct {
	CameraModuleID    string `form:"camera_module_id"`
	CameraType        string `form:"camera_type"`
	SceneType         string `form:"scene_type"`
	TestCampaign      string `form:"test_campaign"`
	LightingCondition string `form:"lighting_condition"`
	Tags              string `form:"tags"` // 逗号分隔
	CaptureTimeStart  string `form:"capture_time_start"`
	CaptureTimeEnd    string `form:"capture_time_end"`

	// 指标阈值，任意一个非空就走 join 查询
	SharpnessMin       string `form:"sharpness_min"`
	SharpnessMax       string `form:"sharpness_max"`
	NoiseMin           string `form:"noise_min"`
	NoiseMax           string `form:"noise_max"`
	FlareIndexMin      string `form:"flare_index_min"`
	FlareIndexMax      string `form:"flare_index_max"`
	MotionBlurScoreMin string `form:"motion_blur_score_min"`
	MotionBlurScoreMax string `form:"motion_blur_score_max"`

	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// RawMetricBounds 按指标名列出阈值原始字符串，顺序固定
func (p ImageQueryParams) RawMetricBounds() []RawMetricBound {
	return []RawMetricBound{
		{Name: "sharpness", Min: p.SharpnessMin, Max: p.SharpnessMax},
		{Name: "noise", Min: p.NoiseMin, Max: p.NoiseMax},
		{Name: "flare_index", Min: p.FlareIndexMin, Max: p.FlareIndexMax},
		{Name: "motion_blur_score", Min: p.MotionBlurScoreMin, Max: p.MotionBlurScoreMax},
	}
}

type RawMetricBound struct {
	Name string
	Min  string
	Max  string
}

// ImageCriteria 是 Filter Builder 的输入，空字段表示不限制
type ImageCriteria struct {
	CameraModuleIDs    []string
	CameraTypes        []string
	SceneTypes         []string
	LightingConditions []string
	TestCampaigns      []string
	Tags               []string
	CaptureTimeStart   *time.Time
	CaptureTimeEnd     *time.Time
}

// MetricRange 是 join 查询中一个指标的区间；Min/Max 为 nil 表示未指定
type MetricRange struct {
	Name string
	Min  *float64
	Max  *float64
}

func (r MetricRange) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

type PageParams struct {
	Page  int
	Limit int
}

// ImagePage 是分页查询结果
type ImagePage struct {
	Images []Image `json:"images"`
	Count  int64   `json:"count"`
	Page   int     `json:"page,omitempty"`
	Limit  int     `json:"limit,omitempty"`
}
