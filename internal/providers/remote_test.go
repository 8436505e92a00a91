package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/config"
	"courier/internal/domain"
	"courier/internal/upload"
)

type recordedPut struct {
	path   string
	header http.Header
	body   string
}

// objectServer answers PUTs with the scripted statuses, then 200
type objectServer struct {
	*httptest.Server

	mu       sync.Mutex
	statuses []int
	puts     []recordedPut
}

func newObjectServer(t *testing.T, statuses ...int) *objectServer {
	t.Helper()
	s := &objectServer{statuses: statuses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *objectServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusOK)
		return
	}
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.puts = append(s.puts, recordedPut{path: r.URL.Path, header: r.Header.Clone(), body: string(body)})
	status := http.StatusOK
	if len(s.statuses) > 0 {
		status, s.statuses = s.statuses[0], s.statuses[1:]
	}
	s.mu.Unlock()

	if status != http.StatusOK {
		code := "InternalError"
		if status == http.StatusForbidden {
			code = "AccessDenied"
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		fmt.Fprintf(w, "<Error><Code>%s</Code><Message>scripted</Message><RequestId>1</RequestId></Error>", code)
		return
	}
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func (s *objectServer) Puts() []recordedPut {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedPut(nil), s.puts...)
}

func fastRetries(t *testing.T) {
	t.Helper()
	prev := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = prev })
}

func remoteSettings(provider, endpoint string) config.StorageSettings {
	return config.StorageSettings{
		Provider:   provider,
		Endpoint:   endpoint,
		Region:     "us-east-1",
		Bucket:     "media",
		Prefix:     "up",
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		PathStyle:  true,
		RetryCount: 2,
	}
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

func remoteFile() (domain.FileHandle, upload.Options) {
	payload := strings.Repeat("p", 64*1024)
	opts := upload.Options{
		ContentType: "image/png",
		Target:      domain.UploadTarget{ChannelID: "chan-1", Description: "launch photo"},
	}
	return domain.FileFromBytes("Photo.PNG", "image/png", []byte(payload)), opts
}

// assertObjectPut checks the PUT landed on bucket/prefix/channel/yyyy/mm with
// the target carried as object metadata
func assertObjectPut(t *testing.T, put recordedPut, file domain.FileHandle) {
	t.Helper()
	assert.True(t, strings.HasPrefix(put.path, "/media/up/chan-1/2026/10/"), put.path)
	assert.True(t, strings.HasSuffix(put.path, ".png"), put.path)
	assert.Equal(t, "Photo.PNG", put.header.Get("X-Amz-Meta-Original-Name"))
	assert.Equal(t, "chan-1", put.header.Get("X-Amz-Meta-Channel-Id"))
	assert.Equal(t, "launch photo", put.header.Get("X-Amz-Meta-Description"))
	assert.Equal(t, "image/png", put.header.Get("Content-Type"))
	assert.Contains(t, put.body, strings.Repeat("p", int(file.Size)))
}

func TestS3UploaderRetriesServerErrors(t *testing.T) {
	fastRetries(t)
	srv := newObjectServer(t, http.StatusInternalServerError)

	u, err := NewS3Uploader(context.Background(), remoteSettings("s3", srv.URL))
	require.NoError(t, err)
	u.now = fixedNow

	file, opts := remoteFile()
	var progress []int
	res, err := u.UploadWithProgress(context.Background(), file, opts, func(p int) { progress = append(progress, p) })
	require.NoError(t, err)
	require.True(t, res.Success)

	puts := srv.Puts()
	require.Len(t, puts, 2)
	assert.Equal(t, puts[0].path, puts[1].path, "retry must reuse the object key")
	assertObjectPut(t, puts[1], file)
	assert.Equal(t, srv.URL+puts[1].path, res.URL)

	require.NotEmpty(t, progress)
	for _, p := range progress {
		assert.LessOrEqual(t, p, 99)
	}
}

func TestS3UploaderDoesNotRetryForbidden(t *testing.T) {
	fastRetries(t)
	srv := newObjectServer(t, http.StatusForbidden)

	u, err := NewS3Uploader(context.Background(), remoteSettings("s3", srv.URL))
	require.NoError(t, err)

	file, opts := remoteFile()
	_, err = u.Upload(context.Background(), file, opts)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "s3", storageErr.Provider)
	assert.Len(t, srv.Puts(), 1)
}

func TestMinIOUploaderRetriesServerErrors(t *testing.T) {
	fastRetries(t)
	srv := newObjectServer(t, http.StatusServiceUnavailable)

	u, err := NewMinIOUploader(remoteSettings("minio", srv.URL))
	require.NoError(t, err)
	u.now = fixedNow

	file, opts := remoteFile()
	var progress []int
	res, err := u.UploadWithProgress(context.Background(), file, opts, func(p int) { progress = append(progress, p) })
	require.NoError(t, err)
	require.True(t, res.Success)

	puts := srv.Puts()
	require.Len(t, puts, 2)
	assert.Equal(t, puts[0].path, puts[1].path)
	assertObjectPut(t, puts[1], file)
	assert.Equal(t, srv.URL+puts[1].path, res.URL)

	require.NotEmpty(t, progress)
	assert.Equal(t, 99, progress[len(progress)-1])
}

func TestMinIOUploaderDoesNotRetryForbidden(t *testing.T) {
	fastRetries(t)
	srv := newObjectServer(t, http.StatusForbidden)

	u, err := NewMinIOUploader(remoteSettings("minio", srv.URL))
	require.NoError(t, err)

	file, opts := remoteFile()
	_, err = u.Upload(context.Background(), file, opts)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "minio", storageErr.Provider)
	assert.Len(t, srv.Puts(), 1)
}

func TestProgressReadSeekerRewind(t *testing.T) {
	var got []int
	r := newProgressReadSeeker(context.Background(), strings.NewReader(strings.Repeat("x", 100)), 100,
		func(p int) { got = append(got, p) })

	_, err := io.CopyN(io.Discard, r, 50)
	require.NoError(t, err)

	// Signers read the body for a checksum and seek back before sending
	pos, err := r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	_, err = io.CopyN(io.Discard, r, 60)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 60}, got)
}
