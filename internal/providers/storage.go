package providers

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"courier/internal/config"
	"courier/internal/domain"
	"courier/internal/upload"
)

// NewUploader builds the uploader selected by cfg.Provider
func NewUploader(ctx context.Context, cfg config.StorageSettings, fs afero.Fs) (upload.ProgressUploader, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalUploader(fs, cfg.LocalDir, cfg.PublicBaseURL), nil
	case "s3":
		return NewS3Uploader(ctx, cfg)
	case "minio":
		return NewMinIOUploader(cfg)
	default:
		return nil, fmt.Errorf("%w: storage %q", ErrUnknownProvider, cfg.Provider)
	}
}

// objectKey places uploads under prefix/channel/yyyy/mm with a random name
// that keeps the original extension
func objectKey(prefix string, target domain.UploadTarget, name string, now time.Time) string {
	channel := target.ChannelID
	if channel == "" {
		channel = "general"
	}
	ext := strings.ToLower(filepath.Ext(name))
	return path.Join(prefix, channel, now.Format("2006/01"), uuid.NewString()+ext)
}

// objectMetadata carries the upload target along with the object
func objectMetadata(file domain.FileHandle, opts upload.Options) map[string]string {
	meta := map[string]string{"original-name": file.Name}
	if opts.Target.ChannelID != "" {
		meta["channel-id"] = opts.Target.ChannelID
	}
	if opts.Target.ServerID != "" {
		meta["server-id"] = opts.Target.ServerID
	}
	if opts.Target.Description != "" {
		meta["description"] = opts.Target.Description
	}
	return meta
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

// retryDelay is the first backoff step between upload attempts
var retryDelay = 500 * time.Millisecond

// retryOptions are shared by the remote uploaders. The SDK clients have
// their own retries disabled so these are the only ones.
func retryOptions(ctx context.Context, retries uint, retryIf func(error) bool) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(retries + 1),
		retry.Delay(retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && retryIf(err)
		}),
	}
}
