package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidPath    = errors.New("invalid object path")
	ErrBucketNil      = errors.New("storage bucket is not initialized")
)

// Backend 是对象实际落盘的位置
type Backend interface {
	// Put 写入新对象，已存在时返回 ErrObjectExists
	Put(ctx context.Context, objectPath string, r io.Reader) (int64, error)
	// Remove 删除对象，不存在的路径跳过，返回实际删除数
	Remove(ctx context.Context, objectPaths []string) (int, error)
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
}

// Default 由 main 初始化
var Default *Bucket

type Bucket struct {
	Name    string
	BaseURL string
	Backend Backend
	Signer  *URLSigner
}

func NewBucket(name, baseURL string, backend Backend, signer *URLSigner) *Bucket {
	return &Bucket{
		Name:    strings.Trim(strings.TrimSpace(name), "/"),
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Backend: backend,
		Signer:  signer,
	}
}

func storageLogger() *slog.Logger {
	return config.Logger("storage")
}

// InitStorage 按配置创建默认 bucket
func InitStorage() error {
	if config.AppConfig == nil {
		return errors.New("app config is not initialized")
	}
	cfg := config.AppConfig.Storage

	signer, err := NewURLSigner(cfg.SigningSecret)
	if err != nil {
		return err
	}

	var backend Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "local":
		backend, err = NewLocalBackend(filepath.Join(cfg.LocalRoot, cfg.Bucket))
	case "sftp":
		backend, err = NewSFTPBackend(SFTPServerConfig{
			Host:           cfg.SFTP.Host,
			Port:           cfg.SFTP.Port,
			User:           cfg.SFTP.User,
			PrivateKeyPath: cfg.SFTP.PrivateKeyPath,
			KnownHostsPath: cfg.SFTP.KnownHostsPath,
			Root:           path.Join(cfg.SFTP.Root, cfg.Bucket),
			Timeout:        time.Duration(cfg.SFTP.TimeoutSeconds) * time.Second,
		})
	default:
		err = fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
	if err != nil {
		return err
	}

	Default = NewBucket(cfg.Bucket, config.AppConfig.Server.PublicBaseURL, backend, signer)
	storageLogger().Info("storage initialized", "backend", cfg.Backend, "bucket", cfg.Bucket)
	return nil
}

// CleanObjectPath 校验并规范对象路径，拒绝绝对路径和 ..
func CleanObjectPath(raw string) (string, error) {
	value := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	value = strings.TrimLeft(value, "/")
	if value == "" {
		return "", ErrInvalidPath
	}
	for _, segment := range strings.Split(value, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidPath, raw)
		}
	}
	cleaned := path.Clean(value)
	if cleaned == "." || cleaned == "/" {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func (b *Bucket) Upload(ctx context.Context, objectPath string, r io.Reader) (int64, error) {
	if b == nil || b.Backend == nil {
		return 0, ErrBucketNil
	}
	cleaned, err := CleanObjectPath(objectPath)
	if err != nil {
		return 0, err
	}
	return b.Backend.Put(ctx, cleaned, r)
}

func (b *Bucket) Remove(ctx context.Context, objectPaths []string) (int, error) {
	if b == nil || b.Backend == nil {
		return 0, ErrBucketNil
	}
	cleaned := make([]string, 0, len(objectPaths))
	for _, p := range objectPaths {
		c, err := CleanObjectPath(p)
		if err != nil {
			return 0, err
		}
		cleaned = append(cleaned, c)
	}
	if len(cleaned) == 0 {
		return 0, nil
	}
	return b.Backend.Remove(ctx, cleaned)
}

func (b *Bucket) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if b == nil || b.Backend == nil {
		return nil, ErrBucketNil
	}
	cleaned, err := CleanObjectPath(objectPath)
	if err != nil {
		return nil, err
	}
	return b.Backend.Open(ctx, cleaned)
}

func escapePath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// PublicURL 形如 {base}/storage/v1/object/public/{bucket}/{path}
func (b *Bucket) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.BaseURL, b.Name, escapePath(objectPath))
}

// PathFromURL 从公开地址里取出对象路径（bucket 名之后的部分）
func (b *Bucket) PathFromURL(rawURL string) (string, bool) {
	marker := "/" + b.Name + "/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return "", false
	}
	rest := rawURL[idx+len(marker):]
	if q := strings.IndexAny(rest, "?#"); q >= 0 {
		rest = rest[:q]
	}
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

func (b *Bucket) objectKey(objectPath string) string {
	return b.Name + "/" + objectPath
}

// CreateSignedURL 生成带 token 的限时下载地址
func (b *Bucket) CreateSignedURL(objectPath string, ttl time.Duration) (string, error) {
	if b == nil || b.Signer == nil {
		return "", ErrBucketNil
	}
	cleaned, err := CleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	token, err := b.Signer.Sign(b.objectKey(cleaned), ttl)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/storage/v1/object/sign/%s/%s?token=%s",
		b.BaseURL, b.Name, escapePath(cleaned), url.QueryEscape(token)), nil
}

func (b *Bucket) VerifySignedToken(objectPath, token string) error {
	if b == nil || b.Signer == nil {
		return ErrBucketNil
	}
	cleaned, err := CleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	return b.Signer.Verify(b.objectKey(cleaned), token)
}
