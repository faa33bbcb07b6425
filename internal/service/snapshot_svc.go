package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// SnapshotProvider 同步载荷归档接口
// 每次同步前把分站回传的原始 JSON 归档一份，便于重放和排障
type SnapshotProvider interface {
	// Save 归档一份载荷，返回存储 key
	Save(ctx context.Context, shopCode string, data []byte) (key string, err error)

	// Load 按 key 取回载荷
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete 删除归档
	Delete(ctx context.Context, key string) error
}

// ==================== 配置 ====================

type SnapshotConfig struct {
	Provider  string // "s3" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点（S3 兼容存储）
	BasePath  string // 基础路径前缀
}

// NewSnapshotProvider 按配置创建归档存储
func NewSnapshotProvider(cfg *SnapshotConfig) (SnapshotProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Snapshots(cfg)
	case "local":
		return NewLocalSnapshots(cfg)
	default:
		return nil, fmt.Errorf("不支持的归档存储: %s", cfg.Provider)
	}
}

// ==================== S3 实现 ====================

type S3Snapshots struct {
	client   *s3.Client
	bucket   string
	basePath string
}

func NewS3Snapshots(cfg *SnapshotConfig) (*S3Snapshots, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Snapshots{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
	}, nil
}

func (s *S3Snapshots) Save(ctx context.Context, shopCode string, data []byte) (string, error) {
	key := snapshotKey(s.basePath, shopCode)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("归档上传S3失败: %v", err)
	}
	return key, nil
}

func (s *S3Snapshots) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("读取S3归档失败: %v", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Snapshots) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// ==================== 本地存储 (开发测试用) ====================

type LocalSnapshots struct {
	basePath string
}

func NewLocalSnapshots(cfg *SnapshotConfig) (*LocalSnapshots, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./snapshots"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建归档目录失败: %v", err)
	}
	return &LocalSnapshots{basePath: basePath}, nil
}

func (s *LocalSnapshots) Save(ctx context.Context, shopCode string, data []byte) (string, error) {
	key := snapshotKey("", shopCode)
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("写入本地归档失败: %v", err)
	}
	return key, nil
}

func (s *LocalSnapshots) Load(ctx context.Context, key string) ([]byte, error) {
	// key 来自外部输入，禁止逃出归档目录
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("非法归档 key: %s", key)
	}
	return os.ReadFile(filepath.Join(s.basePath, clean))
}

func (s *LocalSnapshots) Delete(ctx context.Context, key string) error {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("非法归档 key: %s", key)
	}
	return os.Remove(filepath.Join(s.basePath, clean))
}

// ==================== 工具函数 ====================

func snapshotKey(basePath, shopCode string) string {
	if shopCode == "" {
		shopCode = "unknown"
	}
	datePath := time.Now().Format("2006/01/02")
	name := fmt.Sprintf("%s.json", uuid.New().String())
	if basePath != "" {
		return fmt.Sprintf("%s/%s/%s/%s", basePath, shopCode, datePath, name)
	}
	return fmt.Sprintf("%s/%s/%s", shopCode, datePath, name)
}
