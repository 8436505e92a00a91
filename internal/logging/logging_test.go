package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/config"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "courier.log")

	closer, err := Setup(config.LogSettings{Level: "debug", File: path, MaxSizeMB: 1}, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		Discard()
		log.SetLevel(log.InfoLevel)
	})

	log.WithField("item", "a").Debug("hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), "item=a")
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	_, err := Setup(config.LogSettings{Level: "chatty", File: filepath.Join(t.TempDir(), "x.log")}, false)
	require.Error(t, err)
}
