package providers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"courier/internal/domain"
	"courier/internal/upload"
)

// LocalUploader copies files into a directory, for offline use and tests
type LocalUploader struct {
	fs      afero.Fs
	dir     string
	baseURL string
	now     func() time.Time
}

// NewLocalUploader stores files under dir. URLs are baseURL/key, or
// file:// paths when baseURL is empty.
func NewLocalUploader(fs afero.Fs, dir, baseURL string) *LocalUploader {
	return &LocalUploader{fs: fs, dir: dir, baseURL: baseURL, now: time.Now}
}

func (u *LocalUploader) Upload(ctx context.Context, file domain.FileHandle, opts upload.Options) (upload.Result, error) {
	return u.UploadWithProgress(ctx, file, opts, nil)
}

func (u *LocalUploader) UploadWithProgress(ctx context.Context, file domain.FileHandle, opts upload.Options, onProgress func(int)) (upload.Result, error) {
	key := objectKey("", opts.Target, file.Name, u.now())
	dst := filepath.Join(u.dir, filepath.FromSlash(key))

	if err := u.copy(ctx, file, dst, onProgress); err != nil {
		_ = u.fs.Remove(dst)
		return upload.Result{}, newStorageError("local", "upload", key, err)
	}

	url := "file://" + filepath.ToSlash(dst)
	if u.baseURL != "" {
		url = joinURL(u.baseURL, key)
	}
	return upload.Result{Success: true, URL: url}, nil
}

func (u *LocalUploader) copy(ctx context.Context, file domain.FileHandle, dst string, onProgress func(int)) error {
	if file.Open == nil {
		return fmt.Errorf("%s has no payload", file.Name)
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := u.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := u.fs.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, newProgressReadSeeker(ctx, src, file.Size, onProgress)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
