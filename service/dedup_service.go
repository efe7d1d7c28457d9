package service

import (
	"context"
	"fmt"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
)

const defaultSimilarityThreshold = 0.95

// DedupDeleteError 批量删除失败时带上已计算的汇总
type DedupDeleteError struct {
	Summary entity.DedupSummary
	Err     error
}

func (e *DedupDeleteError) Error() string {
	return "Failed to delete duplicate records: " + e.Err.Error()
}

func (e *DedupDeleteError) Unwrap() error {
	return e.Err
}

type DedupService struct {
	ImageDAO *dao.ImageDAO
	Store    ObjectStore
}

func NewDedupService() *DedupService {
	return &DedupService{
		ImageDAO: dao.NewImageDAO(),
		Store:    storage.Default,
	}
}

// GroupDuplicates 按哈希分组，images 需已按创建时间正序；每组第一条保留
func GroupDuplicates(images []entity.Image) []entity.DuplicateGroup {
	order := make([]string, 0)
	buckets := make(map[string][]entity.Image)
	for _, img := range images {
		if img.PerceptualHash == nil || *img.PerceptualHash == "" {
			continue
		}
		hash := *img.PerceptualHash
		if _, ok := buckets[hash]; !ok {
			order = append(order, hash)
		}
		buckets[hash] = append(buckets[hash], img)
	}

	groups := make([]entity.DuplicateGroup, 0)
	for _, hash := range order {
		members := buckets[hash]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, entity.DuplicateGroup{
			Hash:       hash,
			Keep:       members[0],
			Duplicates: members[1:],
			Similarity: 1.0,
		})
	}
	return groups
}

func (s *DedupService) Run(ctx context.Context, principal string, req entity.DedupRequest) (*entity.DedupResult, error) {
	logger := serviceLogger().With("func", "DedupService.Run", "principal", principal)

	threshold := defaultSimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, invalidRequest("similarity_threshold must be between 0 and 1")
	}
	dryRun := req.DryRun == nil || *req.DryRun

	images, err := s.ImageDAO.FindHashed(ctx)
	if err != nil {
		return nil, operationError("Failed to fetch images", err)
	}

	groups := GroupDuplicates(images)
	totalDuplicates := 0
	for _, g := range groups {
		totalDuplicates += len(g.Duplicates)
	}

	summary := entity.DedupSummary{
		TotalImagesScanned:   len(images),
		DuplicateGroupsFound: len(groups),
		TotalDuplicates:      totalDuplicates,
		SpaceSavingsEstimate: fmt.Sprintf("%d files", totalDuplicates),
		DryRun:               dryRun,
	}
	logger.Info("dedup scan finished",
		"scanned", summary.TotalImagesScanned,
		"groups", summary.DuplicateGroupsFound,
		"duplicates", totalDuplicates,
		"similarity_threshold", threshold,
		"dry_run", dryRun,
	)

	if dryRun {
		return &entity.DedupResult{Summary: summary, DuplicateGroups: groups}, nil
	}
	if totalDuplicates == 0 {
		return &entity.DedupResult{Summary: summary}, nil
	}

	ids := make([]string, 0, totalDuplicates)
	paths := make([]string, 0, totalDuplicates)
	for _, g := range groups {
		for _, dup := range g.Duplicates {
			ids = append(ids, dup.ID)
			if p, ok := s.Store.PathFromURL(dup.ImageURL); ok {
				paths = append(paths, p)
			}
		}
	}

	deleted, err := s.ImageDAO.DeleteByIDs(ctx, ids)
	if err != nil {
		logger.Error("delete duplicate records failed", "error", err)
		return nil, &DedupDeleteError{Summary: summary, Err: err}
	}

	removed := 0
	if len(paths) > 0 {
		removed, err = s.Store.Remove(ctx, paths)
		if err != nil {
			logger.Error("storage deletion error", "error", err, "removed", removed, "requested", len(paths))
		}
	}

	summary.DeletedCount = &deleted
	summary.StorageFilesDeleted = &removed
	logger.Info("duplicates purged", "deleted", deleted, "storage_files_deleted", removed)
	return &entity.DedupResult{Summary: summary}, nil
}
