package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TagActionAdd     = "add"
	TagActionRemove  = "remove"
	TagActionReplace = "replace"
)

type TagService struct {
	ImageDAO *dao.ImageDAO
	Now      func() time.Time
}

func NewTagService() *TagService {
	return &TagService{
		ImageDAO: dao.NewImageDAO(),
		Now:      time.Now,
	}
}

func normalizeTagAction(action string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(action))
	switch value {
	case "":
		return TagActionReplace, nil
	case TagActionAdd, TagActionRemove, TagActionReplace:
		return value, nil
	default:
		return "", dao.ErrInvalidAction
	}
}

// MergeTags 按 action 计算新的标签集合
func MergeTags(current, input []string, action string) []string {
	input = normalizeTagList(input)
	switch action {
	case TagActionAdd:
		return normalizeTagList(append(slices.Clone(current), input...))
	case TagActionRemove:
		result := make([]string, 0, len(current))
		for _, tag := range current {
			if !slices.Contains(input, tag) {
				result = append(result, tag)
			}
		}
		return result
	default:
		return input
	}
}

// Update 修改自己图片的标签和备注
func (s *TagService) Update(ctx context.Context, owner string, req entity.TagUpdateRequest) (*entity.Image, error) {
	imageID := strings.TrimSpace(req.ImageID)
	if imageID == "" {
		return nil, invalidRequest("Missing image_id")
	}

	action, err := normalizeTagAction(req.Action)
	if err != nil {
		return nil, err
	}

	current, err := s.ImageDAO.FindOwnedByID(ctx, imageID, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, operationError("Failed to fetch image", err)
	}

	updates := map[string]interface{}{
		"updated_at": s.Now().UTC(),
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](MergeTags(current.Tags, *req.Tags, action))
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.ImageDAO.UpdateOwned(ctx, imageID, owner, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, operationError("Update failed", err)
	}

	updated, err := s.ImageDAO.FindOwnedByID(ctx, imageID, owner)
	if err != nil {
		return nil, operationError("Update failed", err)
	}
	return updated, nil
}
