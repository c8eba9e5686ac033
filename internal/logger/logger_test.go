package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(Options{Level: "debug", Environment: "production", Enabled: true, Output: buf})

	log.WithField("strategy_name", "alpha").Info("hello")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "alpha", entry["strategy_name"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewLoggerDisabledDiscards(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(Options{Level: "info", Environment: "development", Enabled: false, Output: buf})

	log.Error("should not appear")

	assert.Zero(t, buf.Len())
}

func TestNewLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger(Options{Level: "chatty", Enabled: true, Output: &bytes.Buffer{}})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestIngestLoggerAccepted(t *testing.T) {
	log, buf := setupTestLogger()
	ingestLogger := NewIngestLogger(log)

	ingestLogger.LogSnapshotAccepted("btc_usdt_strategy_1", logrus.Fields{
		"nav":     "10250.4568",
		"nav_btc": nil,
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "api", logEntry["component"])
	assert.Equal(t, "btc_usdt_strategy_1", logEntry["strategy_name"])
	assert.Equal(t, "10250.4568", logEntry["nav"])
	assert.NotContains(t, logEntry, "nav_btc")
}

func TestIngestLoggerRejected(t *testing.T) {
	log, buf := setupTestLogger()
	ingestLogger := NewIngestLogger(log)

	ingestLogger.LogSnapshotRejected("InvalidApiKey", "Invalid API key", "10.0.0.1")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "InvalidApiKey", logEntry["error_kind"])
	assert.Equal(t, "warning", logEntry["level"])
	assert.NotContains(t, logEntry, "api_key")
}

func TestIngestLoggerStoreFailure(t *testing.T) {
	log, buf := setupTestLogger()
	ingestLogger := NewIngestLogger(log)

	ingestLogger.LogStoreFailure("alpha", errors.New("connection refused"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "connection refused", logEntry["error"])
	assert.Equal(t, "error", logEntry["level"])
}

func BenchmarkIngestLoggerAccepted(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	ingestLogger := NewIngestLogger(log)

	for i := 0; i < b.N; i++ {
		ingestLogger.LogSnapshotAccepted("alpha", logrus.Fields{"nav": "1.5"})
	}
}
