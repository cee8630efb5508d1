package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"info":    logrus.InfoLevel,
		"trace":   logrus.TraceLevel,
		"warn":    logrus.WarnLevel,
		"":        logrus.TraceLevel,
		"unknown": logrus.TraceLevel,
	}
	for level, expected := range cases {
		assert.Equal(t, expected, GetLevel(level), level)
	}
}

func TestSetup_FileOutput(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	logFile := filepath.Join(t.TempDir(), "server")
	closeLogs := Setup(LoggerSetupParams{
		LogFileName: logFile,
		LogLevel:    "info",
		LogToStdout: true,
	})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	logrus.Info("workout logged")
	require.NoError(t, closeLogs())

	content, err := os.ReadFile(logFile + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(content), "workout logged")
}

func TestSentryHook_Levels(t *testing.T) {
	levels := []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel}
	hook := NewSentryHook(levels)
	assert.Equal(t, levels, hook.Levels())
	assert.Equal(t, "error", string(sentryLevel(logrus.ErrorLevel)))
	assert.Equal(t, "fatal", string(sentryLevel(logrus.PanicLevel)))
}
