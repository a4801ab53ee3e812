package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphrec.json")

	cfg := &Config{
		Host:         "robot.local",
		DownloadPath: "/maps/warehouse",
		SessionName:  "warehouse",
		UserName:     "operator",
	}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigFrom_MissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
