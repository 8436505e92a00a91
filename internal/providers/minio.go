package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"courier/internal/config"
	"courier/internal/domain"
	"courier/internal/upload"
)

// MinIOUploader puts objects into a MinIO bucket
type MinIOUploader struct {
	client  *minio.Client
	cfg     config.StorageSettings
	scheme  string
	host    string
	retries uint
	now     func() time.Time
}

func NewMinIOUploader(cfg config.StorageSettings) (*MinIOUploader, error) {
	// Extract endpoint without protocol for MinIO client
	endpoint, secure := cfg.Endpoint, cfg.UseSSL
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, secure = rest, false
	} else if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = rest, true
	}
	endpoint = strings.TrimRight(endpoint, "/")

	// One attempt per call; retries are driven by retry-go
	client, err := minio.New(endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     secure,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, newStorageError("minio", "configure", "", err)
	}

	scheme := "http"
	if secure {
		scheme = "https"
	}
	return &MinIOUploader{
		client:  client,
		cfg:     cfg,
		scheme:  scheme,
		host:    endpoint,
		retries: cfg.RetryCount,
		now:     time.Now,
	}, nil
}

func (u *MinIOUploader) Upload(ctx context.Context, file domain.FileHandle, opts upload.Options) (upload.Result, error) {
	return u.UploadWithProgress(ctx, file, opts, nil)
}

func (u *MinIOUploader) UploadWithProgress(ctx context.Context, file domain.FileHandle, opts upload.Options, onProgress func(int)) (upload.Result, error) {
	if file.Open == nil {
		return upload.Result{}, fmt.Errorf("%s has no payload", file.Name)
	}
	key := objectKey(u.cfg.Prefix, opts.Target, file.Name, u.now())

	err := retry.Do(func() error {
		src, err := file.Open()
		if err != nil {
			return retry.Unrecoverable(err)
		}
		defer src.Close()

		_, err = u.client.PutObject(ctx, u.cfg.Bucket, key, src, file.Size, minio.PutObjectOptions{
			ContentType:  opts.ContentType,
			UserMetadata: objectMetadata(file, opts),
			Progress:     &progressSink{tracker: newPercentTracker(file.Size, onProgress)},
		})
		if err != nil {
			log.WithField("key", key).Warnf("MinIO put failed: %v", err)
		}
		return err
	}, retryOptions(ctx, u.retries, minioRetryable)...)
	if err != nil {
		return upload.Result{}, newStorageError("minio", "upload", key, err)
	}

	return upload.Result{Success: true, URL: u.publicURL(key)}, nil
}

func (u *MinIOUploader) publicURL(key string) string {
	if u.cfg.PublicBaseURL != "" {
		return joinURL(u.cfg.PublicBaseURL, key)
	}
	return fmt.Sprintf("%s://%s/%s/%s", u.scheme, u.host, u.cfg.Bucket, key)
}

func minioRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
		return retryableStatus(resp.StatusCode)
	}
	return true
}
