package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"courier/internal/domain"
)

const previewPrefix = "data:image/png;base64,"

// ImagePreviewer renders a PNG thumbnail of image files as a data URL
type ImagePreviewer struct {
	MaxWidth  int
	MaxHeight int
}

func NewImagePreviewer() ImagePreviewer {
	return ImagePreviewer{MaxWidth: 160, MaxHeight: 160}
}

func (p ImagePreviewer) CreatePreview(ctx context.Context, file domain.FileHandle) (string, error) {
	if !strings.HasPrefix(file.MediaType, "image/") {
		return "", ErrPreviewUnsupported
	}
	if file.Open == nil {
		return "", fmt.Errorf("%s has no payload", file.Name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", file.Name, err)
	}
	thumb := imaging.Fit(img, p.MaxWidth, p.MaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return previewPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
