package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_AppendsJSONEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "registry.log")

	f, logger, err := FileLogger(logrus.InfoLevel, path)
	require.NoError(t, err)
	require.NotNil(t, f)

	logger.WithField("stage", "offices").Info("stage finished")
	logger.Debug("dropped")
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"stage":"offices"`)
	require.Contains(t, string(raw), `"msg":"stage finished"`)
	require.NotContains(t, string(raw), "dropped")
}

func TestFileLogger_EmptyPathIsConsoleOnly(t *testing.T) {
	f, logger, err := FileLogger(logrus.WarnLevel, "")
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())
}
