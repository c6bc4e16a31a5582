package logconfig

import (
	"os"
	"path/filepath"
	"testing"

	myLogger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, myLogger.InfoLevel, lvl)

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, myLogger.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestProductionLoggerFile(t *testing.T) {
	defer func() {
		myLogger.SetOutput(os.Stderr)
		ConfigInfoLogger()
	}()

	path := filepath.Join(t.TempDir(), "ordinals.log")
	require.NoError(t, ConfigProductionLogger("warn", path))
	assert.Equal(t, myLogger.WarnLevel, myLogger.GetLevel())

	myLogger.Info("dropped")
	myLogger.WithField("txid", "abc").Warn("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"txid":"abc"`)
	assert.NotContains(t, string(data), "dropped")

	assert.Error(t, ConfigProductionLogger("loud", ""))
}
