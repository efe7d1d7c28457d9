package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
	"github.com/google/uuid"
)

var ErrNoFile = errors.New("No file provided")

type UploadResult struct {
	Success     bool          `json:"success"`
	Image       *entity.Image `json:"image"`
	StoragePath string        `json:"storage_path"`
}

type ImageUploadService struct {
	ImageDAO *dao.ImageDAO
	Store    ObjectStore
	NewID    func() string
	Now      func() time.Time
}

func NewImageUploadService() *ImageUploadService {
	return &ImageUploadService{
		ImageDAO: dao.NewImageDAO(),
		Store:    storage.Default,
		NewID:    uuid.NewString,
		Now:      time.Now,
	}
}

// ValidateMetadata 检查必填字段和枚举值
func ValidateMetadata(meta entity.ImageMetadata) error {
	required := []struct {
		field string
		value string
	}{
		{"camera_module_id", meta.CameraModuleID},
		{"camera_type", meta.CameraType},
		{"test_campaign", meta.TestCampaign},
		{"scene_type", meta.SceneType},
		{"lighting_condition", meta.LightingCondition},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalidRequest("Missing required metadata field: %s", r.field)
		}
	}

	if err := entity.ValidateEnum("camera_type", entity.CameraTypes, meta.CameraType); err != nil {
		return invalidRequest("%v", err)
	}
	if err := entity.ValidateEnum("scene_type", entity.SceneTypes, meta.SceneType); err != nil {
		return invalidRequest("%v", err)
	}
	if err := entity.ValidateEnum("lighting_condition", entity.LightingConditions, meta.LightingCondition); err != nil {
		return invalidRequest("%v", err)
	}
	return nil
}

func fileExtension(fileName string) string {
	ext := strings.TrimPrefix(filepath.Ext(strings.TrimSpace(fileName)), ".")
	if ext == "" {
		return "bin"
	}
	ext = sanitizeFileName(ext)
	if ext == "file" {
		return "bin"
	}
	return strings.ToLower(ext)
}

// BuildStoragePath 生成 <module>/<campaign>/image_<id>.<ext>
func BuildStoragePath(cameraModuleID, testCampaign, id, fileName string) string {
	return fmt.Sprintf("%s/%s/image_%s.%s",
		sanitizeFileName(cameraModuleID),
		sanitizeFileName(testCampaign),
		id,
		fileExtension(fileName),
	)
}

// Upload 先写对象存储再写库，写库失败时删除已上传的对象
func (s *ImageUploadService) Upload(ctx context.Context, owner string, file *multipart.FileHeader, meta entity.ImageMetadata) (*UploadResult, error) {
	logger := serviceLogger().With("func", "ImageUploadService.Upload", "owner", owner)

	if file == nil {
		return nil, ErrNoFile
	}
	if err := ValidateMetadata(meta); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, operationError("Upload failed", fmt.Errorf("open upload file failed: %w", err))
	}
	defer src.Close()

	head := make([]byte, hashSampleBytes)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, operationError("Upload failed", fmt.Errorf("read upload file failed: %w", err))
	}
	head = head[:n]

	id := s.NewID()
	storagePath := BuildStoragePath(meta.CameraModuleID, meta.TestCampaign, id, file.Filename)

	if _, err := s.Store.Upload(ctx, storagePath, io.MultiReader(bytes.NewReader(head), src)); err != nil {
		logger.Error("upload blob failed", "path", storagePath, "error", err)
		return nil, operationError("Upload failed", err)
	}

	captureTime := s.Now().UTC()
	if meta.CaptureTime != nil {
		captureTime = meta.CaptureTime.UTC()
	}
	hash := PerceptualHash(head)

	image := &entity.Image{
		ID:                id,
		CameraModuleID:    strings.TrimSpace(meta.CameraModuleID),
		CameraType:        meta.CameraType,
		TestCampaign:      strings.TrimSpace(meta.TestCampaign),
		SceneType:         meta.SceneType,
		LightingCondition: meta.LightingCondition,
		CaptureTime:       captureTime,
		Tags:              normalizeTagList(meta.Tags),
		Notes:             meta.Notes,
		ImageURL:          s.Store.PublicURL(storagePath),
		PerceptualHash:    &hash,
		CreatedBy:         owner,
	}

	if err := s.ImageDAO.Save(ctx, image); err != nil {
		logger.Error("insert image failed, removing blob", "path", storagePath, "error", err)
		if _, removeErr := s.Store.Remove(ctx, []string{storagePath}); removeErr != nil {
			logger.Error("remove orphan blob failed", "path", storagePath, "error", removeErr)
		}
		return nil, operationError("Database insert failed", err)
	}

	logger.Info("image uploaded", "image_id", id, "path", storagePath, "hash", hash)
	return &UploadResult{Success: true, Image: image, StoragePath: storagePath}, nil
}
