package providers

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"courier/internal/domain"
	"courier/internal/upload"
)

// Media categories accepted in upload.Rules.AllowedCategories
const (
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryDocument = "document"
	CategoryArchive  = "archive"
	CategoryAny      = "any"
	CategoryOther    = "other"
)

var documentTypes = mapset.NewSet(
	"application/pdf",
	"application/rtf",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"application/json",
	"application/epub+zip",
)

var archiveTypes = mapset.NewSet(
	"application/zip",
	"application/gzip",
	"application/x-tar",
	"application/x-xz",
	"application/x-bzip2",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/vnd.rar",
	"application/zstd",
)

// Category maps a media type onto one of the upload categories
func Category(mediaType string) string {
	mediaType = baseType(mediaType)
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return CategoryImage
	case strings.HasPrefix(mediaType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mediaType, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(mediaType, "text/"),
		documentTypes.Contains(mediaType),
		strings.HasPrefix(mediaType, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(mediaType, "application/vnd.oasis.opendocument."):
		return CategoryDocument
	case archiveTypes.Contains(mediaType):
		return CategoryArchive
	default:
		return CategoryOther
	}
}

// MimeValidator checks size limits and sniffs the payload to enforce the
// allowed categories; the declared media type is only a fallback
type MimeValidator struct{}

func (MimeValidator) Validate(file domain.FileHandle, rules upload.Rules) []string {
	var violations []string

	if file.Size <= 0 {
		violations = append(violations, "file is empty")
	}
	if rules.MaxSizePerFile > 0 && file.Size > rules.MaxSizePerFile {
		violations = append(violations, fmt.Sprintf("file is %s, over the %s limit",
			humanize.Bytes(uint64(file.Size)), humanize.Bytes(uint64(rules.MaxSizePerFile))))
	}

	allowed := mapset.NewSet[string]()
	for _, c := range rules.AllowedCategories {
		allowed.Add(strings.ToLower(strings.TrimSpace(c)))
	}
	if allowed.Cardinality() == 0 || allowed.Contains(CategoryAny) {
		return violations
	}

	mediaType, err := sniff(file)
	if err != nil {
		return append(violations, fmt.Sprintf("cannot read file: %v", err))
	}
	if category := Category(mediaType); !allowed.Contains(category) {
		names := allowed.ToSlice()
		slices.Sort(names)
		violations = append(violations, fmt.Sprintf("type %s is not allowed (allowed: %s)", mediaType, strings.Join(names, ", ")))
	}
	return violations
}

func sniff(file domain.FileHandle) (string, error) {
	if file.Open == nil {
		return baseType(file.MediaType), nil
	}
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", err
	}
	if t := baseType(mt.String()); t != "application/octet-stream" || file.MediaType == "" {
		return t, nil
	}
	return baseType(file.MediaType), nil
}
