package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

type ExportRequest struct {
	Filters           *ExportFilters `json:"filters"`
	Format            string         `json:"format"`
	IncludeSignedURLs *bool          `json:"include_signed_urls"`
}

type ExportFilters struct {
	CameraTypes        []string                   `json:"camera_types,omitempty"`
	SceneTypes         []string                   `json:"scene_types,omitempty"`
	LightingConditions []string                   `json:"lighting_conditions,omitempty"`
	TestCampaigns      []string                   `json:"test_campaigns,omitempty"`
	Tags               []string                   `json:"tags,omitempty"`
	CaptureTimeStart   string                     `json:"capture_time_start,omitempty"`
	CaptureTimeEnd     string                     `json:"capture_time_end,omitempty"`
	Metrics            map[string]MetricThreshold `json:"metrics,omitempty"`
}

// MetricThreshold 接受数字（作为下限）或 {min, max} 对象
type MetricThreshold struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (t *MetricThreshold) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = MetricThreshold{}
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] != '{' {
		var v float64
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("metric threshold must be a number or an object: %w", err)
		}
		*t = MetricThreshold{Min: &v}
		return nil
	}

	type bounds MetricThreshold
	var b bounds
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return fmt.Errorf("invalid metric threshold: %w", err)
	}
	*t = MetricThreshold(b)
	return nil
}

// Contains 判断 v 是否落在区间内，未设置的边界视为无穷
func (t MetricThreshold) Contains(v float64) bool {
	if t.Min != nil && v < *t.Min {
		return false
	}
	if t.Max != nil && v > *t.Max {
		return false
	}
	return true
}

type ExportMetadata struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	GeneratedBy    string         `json:"generated_by"`
	FiltersApplied *ExportFilters `json:"filters_applied"`
	TotalImages    int            `json:"total_images"`
	Format         string         `json:"format"`
}

type ExportEnvelope struct {
	ExportMetadata ExportMetadata `json:"export_metadata"`
	Images         []Image        `json:"images"`
}
