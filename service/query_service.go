package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
)

type QueryService struct {
	ImageDAO *dao.ImageDAO
}

func NewQueryService() *QueryService {
	return &QueryService{
		ImageDAO: dao.NewImageDAO(),
	}
}

func singleValue(raw string) []string {
	if value := strings.TrimSpace(raw); value != "" {
		return []string{value}
	}
	return nil
}

// BuildCriteria 把查询字符串转成过滤条件
func BuildCriteria(params entity.ImageQueryParams) (entity.ImageCriteria, error) {
	criteria := entity.ImageCriteria{
		CameraModuleIDs:    singleValue(params.CameraModuleID),
		CameraTypes:        singleValue(params.CameraType),
		SceneTypes:         singleValue(params.SceneType),
		LightingConditions: singleValue(params.LightingCondition),
		TestCampaigns:      singleValue(params.TestCampaign),
		Tags:               splitCSVParam(params.Tags),
	}

	if err := entity.ValidateEnum("camera_type", entity.CameraTypes, criteria.CameraTypes...); err != nil {
		return entity.ImageCriteria{}, invalidRequest("%v", err)
	}
	if err := entity.ValidateEnum("scene_type", entity.SceneTypes, criteria.SceneTypes...); err != nil {
		return entity.ImageCriteria{}, invalidRequest("%v", err)
	}
	if err := entity.ValidateEnum("lighting_condition", entity.LightingConditions, criteria.LightingConditions...); err != nil {
		return entity.ImageCriteria{}, invalidRequest("%v", err)
	}

	var err error
	if criteria.CaptureTimeStart, err = parseTimeParam("capture_time_start", params.CaptureTimeStart); err != nil {
		return entity.ImageCriteria{}, err
	}
	if criteria.CaptureTimeEnd, err = parseTimeParam("capture_time_end", params.CaptureTimeEnd); err != nil {
		return entity.ImageCriteria{}, err
	}
	return criteria, nil
}

func parseBound(field, raw string) (*float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, invalidRequest("invalid %s: %q", field, raw)
	}
	return &f, nil
}

// BuildMetricRanges 返回四个指标的区间，以及是否有任何阈值被设置
func BuildMetricRanges(params entity.ImageQueryParams) ([]entity.MetricRange, bool, error) {
	raw := params.RawMetricBounds()
	ranges := make([]entity.MetricRange, 0, len(raw))
	anySet := false

	for _, b := range raw {
		lo, err := parseBound(b.Name+"_min", b.Min)
		if err != nil {
			return nil, false, err
		}
		hi, err := parseBound(b.Name+"_max", b.Max)
		if err != nil {
			return nil, false, err
		}
		r := entity.MetricRange{Name: b.Name, Min: lo, Max: hi}
		anySet = anySet || r.IsSet()
		ranges = append(ranges, r)
	}
	return ranges, anySet, nil
}

// Query 有指标阈值时走 join 查询（不分页），否则分页查询
func (s *QueryService) Query(ctx context.Context, params entity.ImageQueryParams) (*entity.ImagePage, error) {
	criteria, err := BuildCriteria(params)
	if err != nil {
		return nil, err
	}
	ranges, hasMetricFilters, err := BuildMetricRanges(params)
	if err != nil {
		return nil, err
	}

	if hasMetricFilters {
		images, err := s.ImageDAO.FindWithMetricRanges(ctx, criteria, ranges)
		if err != nil {
			if errors.Is(err, dao.ErrUnknownMetric) {
				return nil, invalidRequest("%v", err)
			}
			return nil, operationError("Query failed", err)
		}
		if images == nil {
			images = []entity.Image{}
		}
		return &entity.ImagePage{Images: images, Count: int64(len(images))}, nil
	}

	page := dao.NormalizePageParams(entity.PageParams{Page: params.Page, Limit: params.Limit})
	images, total, err := s.ImageDAO.FindAll(ctx, criteria, page)
	if err != nil {
		return nil, operationError("Query failed", err)
	}
	if images == nil {
		images = []entity.Image{}
	}
	return &entity.ImagePage{
		Images: images,
		Count:  total,
		Page:   page.Page,
		Limit:  page.Limit,
	}, nil
}
