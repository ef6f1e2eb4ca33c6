package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userdir/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_ProductionIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Env: "production", Output: &buf})

	log.Debug("hidden")
	assert.Zero(t, buf.Len(), "debug must be filtered in production")

	log.Info("user created", "username", "Ada")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "user created", entry["msg"])
	assert.Equal(t, "Ada", entry["username"])

	source, ok := entry["source"].(string)
	require.True(t, ok)
	assert.NotContains(t, source, "/", "source is trimmed to file:line")
	assert.True(t, strings.HasPrefix(source, "logger_test.go:"))
}

func TestNew_DevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Env: "development", Output: &buf})

	log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Format: "json", Output: &buf})

	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-1")
	log.WithContext(ctx).
		WithField("component", "user_service").
		WithError(assert.AnError).
		Error("failed to create user")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "user_service", entry["component"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
}

func TestNewRotatingFile(t *testing.T) {
	path := t.TempDir() + "/userdir.log"
	w := logger.NewRotatingFile(path)
	defer w.Close()

	log := logger.New(logger.Options{Env: "production", Output: w})
	log.Info("written")

	assert.Equal(t, path, w.Filename)
}
