// Package main provides the entry point for the Responses API proxy server.
// The server accepts OpenAI Responses API requests and forwards them, after
// translation, to a remote OpenAI-compatible chat completions endpoint.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/router-for-me/ResponsesProxy/internal/buildinfo"
	"github.com/router-for-me/ResponsesProxy/internal/cmd"
	"github.com/router-for-me/ResponsesProxy/internal/config"
	"github.com/router-for-me/ResponsesProxy/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads configuration, and starts the proxy
// service.
func main() {
	fmt.Printf("ResponsesProxy Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var configPath string
	flag.StringVar(&configPath, "config", "", "Configure File Path")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if configPath == "" {
		configPath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}

	logging.SetDebugLevel(cfg.Debug)
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile, filepath.Join(filepath.Dir(configPath), "logs")); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}

	cmd.StartService(cfg, configPath)
}
