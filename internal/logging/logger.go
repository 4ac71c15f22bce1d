// Package logging provides the application logger setup and the request
// logging collaborator used by the proxy orchestrator. Request logging
// captures the inbound Responses API payloads and the final translated
// responses when enabled through configuration.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// SetupBaseLogger configures the process-wide logrus defaults.
func SetupBaseLogger() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// SetDebugLevel toggles debug-level logging.
func SetDebugLevel(debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.InfoLevel)
}

// ConfigureLogOutput redirects application logs to a file under logDir when
// toFile is true, otherwise keeps stdout.
func ConfigureLogOutput(toFile bool, logDir string) error {
	if !toFile {
		log.SetOutput(os.Stdout)
		return nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	name := filepath.Join(logDir, "responses-proxy-"+time.Now().Format("2006-01-02")+".log")
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return nil
}
