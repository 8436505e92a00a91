package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"courier/internal/config"
	"courier/internal/domain"
	"courier/internal/upload"
)

// S3Uploader puts objects into an S3 (or S3-compatible) bucket
type S3Uploader struct {
	client  *s3.Client
	cfg     config.StorageSettings
	retries uint
	now     func() time.Time
}

// NewS3Uploader creates an uploader from static keys when configured,
// otherwise from the default AWS credential chain
func NewS3Uploader(ctx context.Context, cfg config.StorageSettings) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, newStorageError("s3", "configure", "", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
		o.Retryer = aws.NopRetryer{}
	})

	return &S3Uploader{client: client, cfg: cfg, retries: cfg.RetryCount, now: time.Now}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, file domain.FileHandle, opts upload.Options) (upload.Result, error) {
	return u.UploadWithProgress(ctx, file, opts, nil)
}

func (u *S3Uploader) UploadWithProgress(ctx context.Context, file domain.FileHandle, opts upload.Options, onProgress func(int)) (upload.Result, error) {
	if file.Open == nil {
		return upload.Result{}, fmt.Errorf("%s has no payload", file.Name)
	}
	key := objectKey(u.cfg.Prefix, opts.Target, file.Name, u.now())

	attempt := 0
	err := retry.Do(func() error {
		attempt++
		src, err := file.Open()
		if err != nil {
			return retry.Unrecoverable(err)
		}
		defer src.Close()

		input := &s3.PutObjectInput{
			Bucket:        aws.String(u.cfg.Bucket),
			Key:           aws.String(key),
			Body:          newProgressReadSeeker(ctx, src, file.Size, onProgress),
			ContentLength: aws.Int64(file.Size),
			Metadata:      objectMetadata(file, opts),
		}
		if opts.ContentType != "" {
			input.ContentType = aws.String(opts.ContentType)
		}

		_, err = u.client.PutObject(ctx, input)
		if err != nil {
			log.WithFields(log.Fields{"key": key, "attempt": attempt}).Warnf("S3 put failed: %v", err)
		}
		return err
	}, retryOptions(ctx, u.retries, retryable)...)
	if err != nil {
		return upload.Result{}, newStorageError("s3", "upload", key, err)
	}

	return upload.Result{Success: true, URL: u.publicURL(key)}, nil
}

func (u *S3Uploader) publicURL(key string) string {
	switch {
	case u.cfg.PublicBaseURL != "":
		return joinURL(u.cfg.PublicBaseURL, key)
	case u.cfg.Endpoint != "":
		return joinURL(strings.TrimRight(u.cfg.Endpoint, "/")+"/"+u.cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
	}
}
