package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
)

const signedURLExpiry = time.Hour

var csvHeader = []string{
	"id", "camera_module_id", "camera_type", "test_campaign",
	"scene_type", "lighting_condition", "capture_time",
	"tags", "notes", "image_url", "signed_url",
	"sharpness", "noise", "flare_index", "motion_blur_score",
}

type ExportResult struct {
	Format      string
	ContentType string
	FileName    string
	Body        []byte
	Total       int
}

type ExportService struct {
	ImageDAO *dao.ImageDAO
	Store    ObjectStore
	Cache    SignedURLCache
	Now      func() time.Time
}

func NewExportService() *ExportService {
	svc := &ExportService{
		ImageDAO: dao.NewImageDAO(),
		Store:    storage.Default,
		Now:      time.Now,
	}
	// redis 未启用时 Cache 保持 nil 接口
	if cache := NewRedisSignedURLCache(); cache != nil {
		svc.Cache = cache
	}
	return svc
}

// exportCriteria 校验过滤条件，时间格式与 query-images 一致
func exportCriteria(filters *entity.ExportFilters) (entity.ImageCriteria, error) {
	if err := entity.ValidateEnum("camera_types", entity.CameraTypes, filters.CameraTypes...); err != nil {
		return entity.ImageCriteria{}, invalidRequest("%v", err)
	}
	if err := entity.ValidateEnum("scene_types", entity.SceneTypes, filters.SceneTypes...); err != nil {
		return entity.ImageCriteria{}, invalidRequest("%v", err)
	}
	if err := entity.ValidateEnum("lighting_conditions", entity.LightingConditions, filters.LightingConditions...); err != nil {
		return entity.ImageCriteria{}, invalidRequest("%v", err)
	}
	for name := range filters.Metrics {
		if !slices.Contains(entity.MetricNames, name) {
			return entity.ImageCriteria{}, invalidRequest("unknown metric: %q", name)
		}
	}

	start, err := parseTimeParam("capture_time_start", filters.CaptureTimeStart)
	if err != nil {
		return entity.ImageCriteria{}, err
	}
	end, err := parseTimeParam("capture_time_end", filters.CaptureTimeEnd)
	if err != nil {
		return entity.ImageCriteria{}, err
	}

	return entity.ImageCriteria{
		CameraTypes:        filters.CameraTypes,
		SceneTypes:         filters.SceneTypes,
		LightingConditions: filters.LightingConditions,
		TestCampaigns:      filters.TestCampaigns,
		Tags:               filters.Tags,
		CaptureTimeStart:   start,
		CaptureTimeEnd:     end,
	}, nil
}

// FilterByMetrics 按第一条指标记录过滤，所有阈值同时满足才保留
func FilterByMetrics(images []entity.Image, thresholds map[string]entity.MetricThreshold) []entity.Image {
	if len(thresholds) == 0 {
		return images
	}

	result := make([]entity.Image, 0, len(images))
	for _, img := range images {
		first := img.FirstMetric()
		if first == nil {
			continue
		}
		keep := true
		for name, threshold := range thresholds {
			value, ok := first.Value(name)
			if !ok || value == nil || !threshold.Contains(*value) {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, img)
		}
	}
	return result
}

func (s *ExportService) Export(ctx context.Context, principal string, req entity.ExportRequest) (*ExportResult, error) {
	logger := serviceLogger().With("func", "ExportService.Export", "principal", principal)

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = entity.ExportFormatJSON
	}
	if format != entity.ExportFormatJSON && format != entity.ExportFormatCSV {
		return nil, invalidRequest("invalid format: %q", req.Format)
	}

	filters := req.Filters
	if filters == nil {
		filters = &entity.ExportFilters{}
	}
	criteria, err := exportCriteria(filters)
	if err != nil {
		return nil, err
	}

	images, err := s.ImageDAO.FindForExport(ctx, criteria)
	if err != nil {
		return nil, operationError("Export query failed", err)
	}

	images = FilterByMetrics(images, filters.Metrics)

	includeSigned := req.IncludeSignedURLs == nil || *req.IncludeSignedURLs
	if includeSigned {
		s.attachSignedURLs(ctx, images)
	}

	now := s.Now()
	result := &ExportResult{Format: format, Total: len(images)}
	switch format {
	case entity.ExportFormatCSV:
		body, err := WriteCSV(images)
		if err != nil {
			return nil, operationError("Export failed", err)
		}
		result.Body = body
		result.ContentType = "text/csv"
	default:
		if images == nil {
			images = []entity.Image{}
		}
		envelope := entity.ExportEnvelope{
			ExportMetadata: entity.ExportMetadata{
				GeneratedAt:    now.UTC(),
				GeneratedBy:    principal,
				FiltersApplied: filters,
				TotalImages:    len(images),
				Format:         format,
			},
			Images: images,
		}
		body, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return nil, operationError("Export failed", err)
		}
		result.Body = body
		result.ContentType = "application/json"
	}
	result.FileName = fmt.Sprintf("camera_validation_export_%d.%s", now.UnixMilli(), format)

	logger.Info("export generated", "format", format, "total", result.Total, "signed_urls", includeSigned)
	return result, nil
}

// attachSignedURLs 按顺序为每条记录签名，失败的记录直接跳过
func (s *ExportService) attachSignedURLs(ctx context.Context, images []entity.Image) {
	logger := serviceLogger().With("func", "ExportService.attachSignedURLs")

	// 缓存命中时剩余有效期仍不少于 signedURLExpiry
	expiry := signedURLExpiry
	if s.Cache != nil {
		expiry += s.Cache.MaxAge()
	}

	for i := range images {
		objectPath, ok := s.Store.PathFromURL(images[i].ImageURL)
		if !ok {
			continue
		}

		if s.Cache != nil {
			cached, hit, err := s.Cache.Get(ctx, objectPath)
			if err != nil {
				logger.Warn("signed url cache get failed", "path", objectPath, "error", err)
			} else if hit {
				images[i].SignedURL = cached
				continue
			}
		}

		signed, err := s.Store.CreateSignedURL(objectPath, expiry)
		if err != nil {
			logger.Warn("create signed url failed", "path", objectPath, "error", err)
			continue
		}
		images[i].SignedURL = signed

		if s.Cache != nil {
			if err := s.Cache.Set(ctx, objectPath, signed); err != nil {
				logger.Warn("signed url cache set failed", "path", objectPath, "error", err)
			}
		}
	}
}

func formatMetric(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteCSV 生成固定列的 CSV，第一行是表头
func WriteCSV(images []entity.Image) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, img := range images {
		tags := []string(img.Tags)
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return nil, err
		}

		var scores *entity.MetricScores
		if first := img.FirstMetric(); first != nil {
			scores = &first.MetricScores
		} else {
			scores = &entity.MetricScores{}
		}

		row := []string{
			img.ID,
			img.CameraModuleID,
			img.CameraType,
			img.TestCampaign,
			img.SceneType,
			img.LightingCondition,
			img.CaptureTime.UTC().Format(time.RFC3339Nano),
			string(tagsJSON),
			img.Notes,
			img.ImageURL,
			img.SignedURL,
			formatMetric(scores.Sharpness),
			formatMetric(scores.Noise),
			formatMetric(scores.FlareIndex),
			formatMetric(scores.MotionBlurScore),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
