package dao

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"gorm.io/gorm"
)

var (
	ErrDBNotInitialized = errors.New("gorm db is not initialized")
	ErrInvalidID        = errors.New("invalid id")
	ErrNilEntity        = errors.New("entity is nil")
	ErrInvalidAction    = errors.New("invalid tag action")
	ErrUnknownMetric    = errors.New("unknown metric")
)

const (
	DefaultPage      = 1
	DefaultPageLimit = 50
	MaxPageLimit     = 1000
)

func daoLogger() *slog.Logger {
	return config.Logger("dao")
}

// withContext 安全增加上下文
func withContext(dbConn *gorm.DB, ctx context.Context) (*gorm.DB, error) {
	logger := daoLogger().With("func", "withContext")
	if dbConn == nil {
		logger.Error("db is nil")
		return nil, ErrDBNotInitialized
	}
	if ctx == nil {
		logger.Debug("context is nil, use background")
		ctx = context.Background()
	}
	return dbConn.WithContext(ctx), nil
}

// NormalizePageParams 规范分页参数
func NormalizePageParams(params entity.PageParams) entity.PageParams {
	if params.Page <= 0 {
		params.Page = DefaultPage
	}
	if params.Limit <= 0 {
		params.Limit = DefaultPageLimit
	}
	if params.Limit > MaxPageLimit {
		params.Limit = MaxPageLimit
	}
	return params
}

// 返回分页参数
func pagination(params entity.PageParams) (offset, limit int) {
	logger := daoLogger().With("func", "pagination")
	p := NormalizePageParams(params)
	offset, limit = (p.Page-1)*p.Limit, p.Limit
	logger.Debug("pagination generated", "offset", offset, "limit", limit)
	return offset, limit
}
