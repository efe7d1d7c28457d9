package entity

type DedupRequest struct {
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	DryRun              *bool    `json:"dry_run"`
}

type DuplicateGroup struct {
	Hash       string  `json:"hash"`
	Keep       Image   `json:"keep"`
	Duplicates []Image `json:"duplicates"`
	Similarity float64 `json:"similarity"`
}

type DedupSummary struct {
	TotalImagesScanned   int    `json:"total_images_scanned"`
	DuplicateGroupsFound int    `json:"duplicate_groups_found"`
	TotalDuplicates      int    `json:"total_duplicates"`
	SpaceSavingsEstimate string `json:"space_savings_estimate"`
	DryRun               bool   `json:"dry_run"`
	DeletedCount         *int64 `json:"deleted_count,omitempty"`
	StorageFilesDeleted  *int   `json:"storage_files_deleted,omitempty"`
}

type DedupResult struct {
	Summary         DedupSummary     `json:"summary"`
	DuplicateGroups []DuplicateGroup `json:"duplicate_groups,omitempty"`
}
