package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResultsSkipsUnknownVariants(t *testing.T) {
	raw := `[
		{"type":"post","id":"p1","title":"Hello","author":"ann","created_at":"2024-05-01T10:00:00Z","likes":3},
		{"type":"poll","id":"x1","question":"?"},
		{"type":"user","id":"u1","username":"ann","verified":true,"karma":42},
		{"type":"community","id":"c1","name":"gophers","members":1200,"growth":2.5}
	]`
	var raws []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &raws))

	results, skipped, err := DecodeResults(raws)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, results, 3)

	post, ok := results[0].(PostResult)
	require.True(t, ok)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), post.CreatedAt)

	user, ok := results[1].(UserResult)
	require.True(t, ok)
	assert.True(t, user.Verified)
	assert.Equal(t, "@ann", ResultTitle(user))

	community, ok := results[2].(CommunityResult)
	require.True(t, ok)
	assert.Equal(t, KindCommunity, community.Kind())
	assert.InDelta(t, 2.5, community.Growth, 0.001)
}

func TestDecodeResultMalformed(t *testing.T) {
	_, _, err := DecodeResult(json.RawMessage(`{"type":"post","likes":"many"}`))
	require.Error(t, err)

	_, _, err = DecodeResult(json.RawMessage(`not json`))
	require.Error(t, err)
}

func TestEncodeResultCarriesTag(t *testing.T) {
	body, err := EncodeResult(UserResult{ID: "u1", Username: "bob"})
	require.NoError(t, err)

	r, ok, err := DecodeResult(body)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, UserResult{ID: "u1", Username: "bob"}, r)
}
