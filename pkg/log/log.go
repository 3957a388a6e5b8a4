// Package log builds the structured logger respire-driver uses, adapted
// from the teacher's pkg/log/log.go.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aabtop/respire-go/pkg/config"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger tagged with build-info fields. In debug mode
// it writes JSON lines to development.log inside the config dir; otherwise
// it discards everything below error level, matching the teacher's
// quiet-by-default production logger.
func NewLogger(cfg *config.AppConfig) *logrus.Entry {
	var log *logrus.Logger
	if cfg.Debug {
		log = newDevelopmentLogger(cfg)
	} else {
		log = newProductionLogger()
	}

	log.Formatter = &logrus.JSONFormatter{}

	return log.WithFields(logrus.Fields{
		"debug":     cfg.Debug,
		"version":   cfg.Version,
		"commit":    cfg.Commit,
		"buildDate": cfg.BuildDate,
	})
}

func getLogLevel(levelName string) logrus.Level {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func newDevelopmentLogger(cfg *config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(getLogLevel(cfg.UserConfig.LogLevel))
	file, err := os.OpenFile(filepath.Join(cfg.ConfigDir, "development.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Println("unable to log to file")
		os.Exit(1)
	}
	log.SetOutput(file)
	return log
}

func newProductionLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	log.SetLevel(logrus.ErrorLevel)
	return log
}
