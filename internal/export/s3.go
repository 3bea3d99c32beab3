package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
)

// S3Uploader выгружает PDF в бакет MinIO/S3 и отдаёт ссылку на объект:
// публичную (если задан PublicURL) или presigned GET на PresignTTL.
type S3Uploader struct {
	cfg    config.S3Config
	client *mclient.Client
}

// NewS3Uploader создаёт клиент MinIO.
// Схема endpoint определяет Secure; бакет должен существовать (fail-fast).
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	const op = "internal/export/NewS3Uploader"

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s: empty endpoint", op)
	}

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.RootUser, cfg.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 24 * time.Hour
	}

	return &S3Uploader{cfg: cfg, client: client}, nil
}

// Upload кладёт data под ключом key и возвращает ссылку на объект.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const op = "internal/export/S3Uploader.Upload"

	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("%s: empty key", op)
	}

	info, err := u.client.PutObject(ctx, u.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		mclient.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	link, err := u.link(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("pdf_uploaded",
		slog.String("op", op),
		slog.String("bucket", u.cfg.Bucket),
		slog.String("key", key),
		slog.Int64("size", info.Size),
	)

	return link, nil
}

func (u *S3Uploader) link(ctx context.Context, key string) (string, error) {
	if u.cfg.PublicURL != "" {
		return strings.TrimRight(u.cfg.PublicURL, "/") + "/" + u.cfg.Bucket + "/" + key, nil
	}

	signed, err := u.client.PresignedGetObject(ctx, u.cfg.Bucket, key, u.cfg.PresignTTL, nil)
	if err != nil {
		return "", err
	}

	return signed.String(), nil
}
