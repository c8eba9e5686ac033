// Package logger provides ingest audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// Snapshot field names shared by the ingest log lines.
const (
	FieldStrategy  = "strategy_name"
	FieldErrorKind = "error_kind"
)

// IngestLogger records what the update API accepted and rejected.
type IngestLogger struct {
	*logrus.Entry
}

// NewIngestLogger creates a new ingest logger.
func NewIngestLogger(baseLogger *logrus.Logger) *IngestLogger {
	return &IngestLogger{
		Entry: baseLogger.WithField("component", "api"),
	}
}

// LogSnapshotAccepted logs a persisted snapshot. Optional values are only
// included when present.
func (il *IngestLogger) LogSnapshotAccepted(strategyName string, fields logrus.Fields) {
	entry := il.WithField(FieldStrategy, strategyName)
	for k, v := range fields {
		if v == nil {
			continue
		}
		entry = entry.WithField(k, v)
	}
	entry.Info("Strategy snapshot updated")
}

// LogSnapshotRejected logs a validation failure. The API key is never logged.
func (il *IngestLogger) LogSnapshotRejected(kind, message, remoteAddr string) {
	il.WithFields(logrus.Fields{
		FieldErrorKind: kind,
		"reason":       message,
		"remote_addr":  remoteAddr,
	}).Warn("Strategy snapshot rejected")
}

// LogStoreFailure logs a datastore error with its full cause.
func (il *IngestLogger) LogStoreFailure(strategyName string, err error) {
	il.WithError(err).WithField(FieldStrategy, strategyName).Error("Database operation error")
}
