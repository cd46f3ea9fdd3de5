package eventlog

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/file"
)

// BackupSuffix is appended to the active log name on rotation. Exactly one
// backup generation is retained; older backups are clobbered.
const BackupSuffix = ".bak"

// timestampLayout matches the fixed "YYYY-MM-DD HH:MM:SS" entry prefix.
const timestampLayout = "2006-01-02 15:04:05"

// LocalOffsetHours returns the civil-time UTC offset in hours for the given
// instant, evaluated on its UTC calendar date: 2 from March 25 through
// October 24, 1 otherwise. This is the device's fixed seasonal rule, not a
// real timezone table; March 25 maps to 2 and October 25 maps to 1.
func LocalOffsetHours(t time.Time) int {
	u := t.UTC()
	month, day := u.Month(), u.Day()

	if month < time.March || month > time.October {
		return 1
	}
	if month == time.March && day < 25 {
		return 1
	}
	if month == time.October && day >= 25 {
		return 1
	}
	return 2
}

// Logger appends timestamped entries to a size-bounded rotating log file.
// Failures never propagate past this type: logging must not be able to take
// down the control loop, so I/O errors are only surfaced on the console.
type Logger struct {
	path       string
	maxSize    int64
	fileClient file.FileOperations
	clk        clock.Clock
	logger     zerolog.Logger

	mu sync.Mutex
}

// New creates a Logger writing to path, rotating once the file reaches
// maxSize bytes. A maxSize of zero or less disables rotation.
func New(path string, maxSize int64, fileClient file.FileOperations, clk clock.Clock, logger zerolog.Logger) *Logger {
	return &Logger{
		path:       path,
		maxSize:    maxSize,
		fileClient: fileClient,
		clk:        clk,
		logger:     logger,
	}
}

// Path returns the active log file path.
func (l *Logger) Path() string {
	return l.path
}

// Log appends message stamped with the current clock reading.
func (l *Logger) Log(message string) {
	l.LogAt(l.clk.Now(), message)
}

// LogAt appends message stamped with the civil time derived from t.
func (l *Logger) LogAt(t time.Time, message string) {
	civil := t.UTC().Add(time.Duration(LocalOffsetHours(t)) * time.Hour)
	line := civil.Format(timestampLayout) + " - " + message + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rotateIfNeeded()

	if err := l.fileClient.AppendFile(l.path, []byte(line)); err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("Failed to append to event log")
		return
	}

	l.logger.Debug().Str("entry", message).Msg("Event logged")
}

// rotateIfNeeded renames the active log to its backup name once it has
// reached maxSize, so the next append starts a fresh file. Caller holds mu.
func (l *Logger) rotateIfNeeded() {
	if l.maxSize <= 0 {
		return
	}

	size, err := l.fileClient.FileSize(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn().Err(err).Str("path", l.path).Msg("Failed to stat event log")
		}
		return
	}
	if size < l.maxSize {
		return
	}

	if err := l.fileClient.Rename(l.path, l.path+BackupSuffix); err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("Failed to rotate event log")
	}
}
