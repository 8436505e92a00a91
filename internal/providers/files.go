package providers

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"courier/internal/domain"
)

// OpenFile builds a FileHandle for a file on fs, sniffing its media type
// from the content
func OpenFile(fs afero.Fs, path string) (domain.FileHandle, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return domain.FileHandle{}, err
	}
	if !info.Mode().IsRegular() {
		return domain.FileHandle{}, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	f, err := fs.Open(path)
	if err != nil {
		return domain.FileHandle{}, err
	}
	defer f.Close()

	mediaType := ""
	if mt, err := mimetype.DetectReader(f); err == nil {
		mediaType = baseType(mt.String())
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			mediaType = baseType(byExt)
		}
	}

	return domain.FileHandle{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: mediaType,
		Path:      path,
		Open: func() (io.ReadSeekCloser, error) {
			return fs.Open(path)
		},
	}, nil
}

// baseType strips parameters such as "; charset=utf-8"
func baseType(mediaType string) string {
	t, _, _ := strings.Cut(mediaType, ";")
	return strings.TrimSpace(strings.ToLower(t))
}
