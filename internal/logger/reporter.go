package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Reporter is the logging capability handed to each polling component.
// SetFailed marks the whole run as failed in addition to logging.
type Reporter interface {
	Info(msg string, fields Fields)
	Warning(msg string, fields Fields)
	Error(msg string, fields Fields)
	SetFailed(msg string, err error)
	Failed() bool
}

// LogrusReporter implements Reporter on top of a logrus logger
type LogrusReporter struct {
	entry *logrus.Entry

	mu     sync.Mutex
	failed bool
}

// NewReporter creates a reporter writing to log. A nil log uses the global logger.
func NewReporter(log *logrus.Logger) *LogrusReporter {
	if log == nil {
		log = Logger
	}
	return &LogrusReporter{entry: logrus.NewEntry(log)}
}

// WithFields returns a reporter that adds fields to every entry.
// The failure flag is not shared with the parent.
func (r *LogrusReporter) WithFields(fields Fields) *LogrusReporter {
	return &LogrusReporter{entry: r.entry.WithFields(fields)}
}

func (r *LogrusReporter) with(fields Fields) *logrus.Entry {
	if len(fields) == 0 {
		return r.entry
	}
	return r.entry.WithFields(fields)
}

// Info logs an informational progress line
func (r *LogrusReporter) Info(msg string, fields Fields) {
	r.with(fields).Info(msg)
}

// Warning logs a warning
func (r *LogrusReporter) Warning(msg string, fields Fields) {
	r.with(fields).Warn(msg)
}

// Error logs an error without failing the run
func (r *LogrusReporter) Error(msg string, fields Fields) {
	r.with(fields).Error(msg)
}

// SetFailed logs msg at error level and latches the failed state
func (r *LogrusReporter) SetFailed(msg string, err error) {
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()

	entry := r.entry
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

// Failed reports whether SetFailed has been called
func (r *LogrusReporter) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}
