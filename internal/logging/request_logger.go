package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// RequestLogger records inbound requests and their final responses, keyed by
// the proxy-generated response id. Both calls are best-effort from the
// caller's perspective: the orchestrator tolerates logging failures rather
// than letting them mask a successful inference.
type RequestLogger interface {
	// LogRequest records the original Responses API request payload.
	LogRequest(responseID string, request []byte) error

	// LogResponse records the translated response payload.
	LogResponse(responseID string, response []byte) error

	// IsEnabled returns whether request logging is currently enabled.
	IsEnabled() bool
}

// FileRequestLogger implements RequestLogger using per-request files under a
// logs directory. Each response id yields a pair of request/response entries
// appended to one file.
type FileRequestLogger struct {
	enabled bool
	logsDir string
}

// NewFileRequestLogger creates a file-based request logger. A relative
// logsDir is resolved against baseDir when provided.
func NewFileRequestLogger(enabled bool, logsDir string, baseDir string) *FileRequestLogger {
	if !filepath.IsAbs(logsDir) && baseDir != "" {
		logsDir = filepath.Join(baseDir, logsDir)
	}
	return &FileRequestLogger{enabled: enabled, logsDir: logsDir}
}

// IsEnabled returns whether request logging is currently enabled.
func (l *FileRequestLogger) IsEnabled() bool { return l.enabled }

// LogRequest writes the inbound request payload for the given response id.
func (l *FileRequestLogger) LogRequest(responseID string, request []byte) error {
	return l.appendSection(responseID, "REQUEST", request)
}

// LogResponse writes the final response payload for the given response id.
func (l *FileRequestLogger) LogResponse(responseID string, response []byte) error {
	return l.appendSection(responseID, "RESPONSE", response)
}

func (l *FileRequestLogger) appendSection(responseID, section string, payload []byte) error {
	if !l.enabled {
		return nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	filePath := filepath.Join(l.logsDir, l.filename(responseID))
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var content strings.Builder
	content.WriteString(fmt.Sprintf("=== %s ===\n", section))
	content.WriteString(fmt.Sprintf("Timestamp: %s\n", time.Now().Format(time.RFC3339Nano)))
	content.Write(payload)
	content.WriteString("\n\n")
	if _, err = file.WriteString(content.String()); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}

func (l *FileRequestLogger) ensureLogsDir() error {
	if _, err := os.Stat(l.logsDir); os.IsNotExist(err) {
		return os.MkdirAll(l.logsDir, 0755)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// filename sanitizes the response id into a log filename. Ids are
// proxy-generated, but callers may hand over arbitrary strings, so the
// sanitization stays strict about path characters.
func (l *FileRequestLogger) filename(responseID string) string {
	sanitized := unsafeFilenameChars.ReplaceAllString(responseID, "-")
	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		sanitized = "response"
	}
	return sanitized + ".log"
}

// NoOpRequestLogger is the disabled-logging implementation.
type NoOpRequestLogger struct{}

// LogRequest does nothing and always returns nil.
func (NoOpRequestLogger) LogRequest(string, []byte) error { return nil }

// LogResponse does nothing and always returns nil.
func (NoOpRequestLogger) LogResponse(string, []byte) error { return nil }

// IsEnabled always returns false.
func (NoOpRequestLogger) IsEnabled() bool { return false }
