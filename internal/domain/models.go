package domain

import (
	"bytes"
	"io"
	"time"
)

// UploadStatus represents where an upload item is in its lifecycle
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusUploading UploadStatus = "uploading"
	StatusUploaded  UploadStatus = "uploaded"
	StatusFailed    UploadStatus = "failed"
)

// FileHandle is an opaque reference to a selected file's payload
type FileHandle struct {
	Name      string
	Size      int64
	MediaType string
	Path      string // empty for in-memory payloads

	// Open returns a fresh reader positioned at the start of the payload
	Open func() (io.ReadSeekCloser, error)
}

// Key identifies the file in rejection reports. Files opened from disk are
// keyed by path so same-named files from different directories stay apart.
func (f FileHandle) Key() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// FileFromBytes builds a FileHandle backed by an in-memory buffer
func FileFromBytes(name, mediaType string, data []byte) FileHandle {
	return FileHandle{
		Name:      name,
		Size:      int64(len(data)),
		MediaType: mediaType,
		Open: func() (io.ReadSeekCloser, error) {
			return nopCloser{bytes.NewReader(data)}, nil
		},
	}
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// UploadTarget describes where an upload is destined on the platform
type UploadTarget struct {
	ChannelID   string
	ServerID    string
	Description string
}

// UploadItem is a file staged in the upload queue
type UploadItem struct {
	ID        string
	File      FileHandle
	Preview   string // rendering-ready preview (data URL), empty when absent
	Status    UploadStatus
	Progress  int    // 0-100, meaningful while uploading
	RemoteURL string // set only when uploaded
	Error     string // set only when failed
	Attempts  int
	AddedAt   time.Time
}

// HasPreview reports whether a preview was generated for the item
func (i UploadItem) HasPreview() bool {
	return i.Preview != ""
}

// Retryable reports whether the item may be (re)submitted for upload
func (i UploadItem) Retryable() bool {
	return i.Status == StatusPending || i.Status == StatusFailed
}

// FacetCount is a single bucket of a facet breakdown
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SearchStats summarises the most recent full-search response
type SearchStats struct {
	Total  int
	Took   time.Duration
	Facets map[string][]FacetCount
}

// SearchPage is one page of results returned by a search provider
type SearchPage struct {
	Results []Result
	Total   int
	Took    time.Duration
	Facets  map[string][]FacetCount
	HasMore bool
}
