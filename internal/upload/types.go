package upload

import (
	"context"
	"errors"

	"courier/internal/domain"
)

var (
	ErrItemNotFound = errors.New("upload item not found")
	ErrNoUploader   = errors.New("no uploader configured")
)

// Rules are the validation rules applied to every selected file
type Rules struct {
	MaxSizePerFile    int64
	AllowedCategories []string
}

// Validator checks a file against rules; an empty result means valid
type Validator interface {
	Validate(file domain.FileHandle, rules Rules) []string
}

// PreviewGenerator produces a rendering-ready preview of a file
type PreviewGenerator interface {
	CreatePreview(ctx context.Context, file domain.FileHandle) (string, error)
}

// Options accompany every upload request
type Options struct {
	Target      domain.UploadTarget
	ContentType string
}

// Result is what an uploader resolves with. A non-nil error from the
// uploader and Success=false are both treated as a failed attempt.
type Result struct {
	Success bool
	URL     string
	Error   string
}

// Uploader transfers a file to remote storage
type Uploader interface {
	Upload(ctx context.Context, file domain.FileHandle, opts Options) (Result, error)
}

// ProgressUploader is an Uploader that can report percent progress
type ProgressUploader interface {
	Uploader
	UploadWithProgress(ctx context.Context, file domain.FileHandle, opts Options, onProgress func(percent int)) (Result, error)
}

// Config holds the queue limits and behaviour flags
type Config struct {
	MaxCount      int
	Rules         Rules
	AutoUpload    bool
	MaxConcurrent int // 0 means unlimited
	Target        domain.UploadTarget
}

// Selection reports the outcome of a SelectFiles call
type Selection struct {
	Accepted []domain.UploadItem
	Rejected map[string]string // file key -> reason
	Dropped  int
}
