package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/config"
	"courier/internal/domain"
	"courier/internal/upload"
)

func TestLocalUploader(t *testing.T) {
	fs := afero.NewMemMapFs()
	u := NewLocalUploader(fs, "/uploads", "https://files.example")
	u.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	payload := []byte(strings.Repeat("x", 100_000))
	var progress []int
	res, err := u.UploadWithProgress(context.Background(),
		domain.FileFromBytes("Notes.TXT", "text/plain", payload),
		upload.Options{Target: domain.UploadTarget{ChannelID: "general-chat"}},
		func(p int) { progress = append(progress, p) })
	require.NoError(t, err)
	require.True(t, res.Success)

	key := strings.TrimPrefix(res.URL, "https://files.example/")
	assert.True(t, strings.HasPrefix(key, "general-chat/2026/10/"), key)
	assert.True(t, strings.HasSuffix(key, ".txt"), key)

	stored, err := afero.ReadFile(fs, "/uploads/"+key)
	require.NoError(t, err)
	assert.Equal(t, payload, stored)

	require.NotEmpty(t, progress)
	assert.IsNonDecreasing(t, progress)
	assert.LessOrEqual(t, progress[len(progress)-1], 99)
}

func TestLocalUploaderCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	u := NewLocalUploader(fs, "/uploads", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.Upload(ctx, domain.FileFromBytes("a.bin", "", []byte("abc")), upload.Options{})

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "local", storageErr.Provider)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewUploaderSelectsProvider(t *testing.T) {
	fs := afero.NewMemMapFs()

	u, err := NewUploader(context.Background(), config.StorageSettings{Provider: "local", LocalDir: "/x"}, fs)
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, u)

	u, err = NewUploader(context.Background(), config.StorageSettings{
		Provider: "minio", Endpoint: "http://localhost:9000", Bucket: "media", AccessKey: "k", SecretKey: "s",
	}, fs)
	require.NoError(t, err)
	m, ok := u.(*MinIOUploader)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9000/media/a/b.png", m.publicURL("a/b.png"))

	_, err = NewUploader(context.Background(), config.StorageSettings{Provider: "ftp"}, fs)
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestS3PublicURL(t *testing.T) {
	u := &S3Uploader{cfg: config.StorageSettings{Bucket: "media", Region: "eu-west-1"}}
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/k.png", u.publicURL("k.png"))

	u.cfg.Endpoint = "https://s3.internal/"
	assert.Equal(t, "https://s3.internal/media/k.png", u.publicURL("k.png"))

	u.cfg.PublicBaseURL = "https://cdn.example/"
	assert.Equal(t, "https://cdn.example/k.png", u.publicURL("k.png"))
}

type statusErr int

func (e statusErr) Error() string       { return "status" }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(errors.New("connection reset")))
	assert.True(t, retryable(statusErr(503)))
	assert.True(t, retryable(statusErr(429)))
	assert.False(t, retryable(statusErr(403)))
}

func TestPercentTracker(t *testing.T) {
	var got []int
	tr := newPercentTracker(200, func(p int) { got = append(got, p) })
	tr.add(50)
	tr.add(0)
	tr.add(100)
	tr.reset(0)
	tr.add(20)
	tr.add(200)
	assert.Equal(t, []int{25, 75, 99}, got)
}
