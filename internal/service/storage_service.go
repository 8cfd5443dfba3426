package service

import (
	"context"
	"course_authoring_backend/internal/config"
	"course_authoring_backend/pkg/logger"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MediaLocator 把已上传媒体的对象 key 转换为可访问的 URL
type MediaLocator interface {
	PublicURL(key string) string
	Ping(ctx context.Context) error
}

// LocalMediaLocator 本地存储实现
type LocalMediaLocator struct {
	Config *config.StorageConfig
}

func (p *LocalMediaLocator) PublicURL(key string) string {
	base := strings.TrimRight(p.Config.PublicBaseURL, "/")
	return base + "/uploads/" + strings.TrimLeft(key, "/")
}

func (p *LocalMediaLocator) Ping(ctx context.Context) error {
	_, err := os.Stat(p.Config.LocalPath)
	return err
}

// MinioMediaLocator MinIO存储实现
type MinioMediaLocator struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioMediaLocator(cfg *config.StorageConfig) (*MinioMediaLocator, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioMediaLocator{Config: cfg, Client: client}, nil
}

func (p *MinioMediaLocator) PublicURL(key string) string {
	objectPath := path.Join("/", p.Config.MinioBucket, key)
	if p.Config.PublicBaseURL != "" {
		return strings.TrimRight(p.Config.PublicBaseURL, "/") + objectPath
	}
	u := *p.Client.EndpointURL()
	u.Path = objectPath
	return u.String()
}

func (p *MinioMediaLocator) Ping(ctx context.Context) error {
	ok, err := p.Client.BucketExists(ctx, p.Config.MinioBucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", p.Config.MinioBucket)
	}
	return nil
}

// NewMediaLocator 按配置选择存储实现，MinIO 初始化失败时退回本地存储
func NewMediaLocator(cfg *config.StorageConfig) MediaLocator {
	if cfg.Type == "minio" {
		p, err := NewMinioMediaLocator(cfg)
		if err == nil {
			return p
		}
		logger.Log.Warn("minio unavailable, falling back to local storage", zap.Error(err))
	}
	return &LocalMediaLocator{Config: cfg}
}
