package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/domain"
)

func decodePreview(t *testing.T, preview string) image.Image {
	t.Helper()
	data, ok := strings.CutPrefix(preview, previewPrefix)
	require.True(t, ok, "not a png data URL")
	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestImagePreviewerThumbnail(t *testing.T) {
	p := NewImagePreviewer()
	file := domain.FileFromBytes("wide.png", "image/png", pngBytes(t, 640, 320))

	preview, err := p.CreatePreview(context.Background(), file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(preview, "data:image/png;base64,"))

	img := decodePreview(t, preview)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestImagePreviewerFailures(t *testing.T) {
	p := NewImagePreviewer()

	_, err := p.CreatePreview(context.Background(), domain.FileFromBytes("a.txt", "text/plain", []byte("hi")))
	require.ErrorIs(t, err, ErrPreviewUnsupported)

	_, err = p.CreatePreview(context.Background(), domain.FileFromBytes("broken.png", "image/png", []byte("not png")))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.CreatePreview(ctx, domain.FileFromBytes("a.png", "image/png", pngBytes(t, 4, 4)))
	require.ErrorIs(t, err, context.Canceled)
}
