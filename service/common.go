package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
)

var ErrInvalidRequest = errors.New("invalid request")

// OperationError 是依赖调用失败，Op 作为对外的 error 文案
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func operationError(op string, err error) error {
	return &OperationError{Op: op, Err: err}
}

// invalidRequest 包装成 ErrInvalidRequest，message 原样返回给调用方
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func (e *requestError) Is(target error) bool { return target == ErrInvalidRequest }

func invalidRequest(format string, args ...interface{}) error {
	return &requestError{message: fmt.Sprintf(format, args...)}
}

// ObjectStore 是服务层用到的对象存储能力，*storage.Bucket 实现了它
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader) (int64, error)
	Remove(ctx context.Context, objectPaths []string) (int, error)
	PublicURL(objectPath string) string
	PathFromURL(rawURL string) (string, bool)
	CreateSignedURL(objectPath string, ttl time.Duration) (string, error)
}

func serviceLogger() *slog.Logger {
	return config.Logger("service")
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

// normalizeTagList 去空白、去重，保持首次出现的顺序；返回非 nil 切片
func normalizeTagList(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, item := range tags {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func splitCSVParam(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizeTagList(strings.Split(raw, ","))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeParam 解析查询参数中的时间，无时区时按 UTC
func parseTimeParam(field, raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, invalidRequest("invalid %s: %q", field, raw)
}
