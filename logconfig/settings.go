package logconfig

import (
	"fmt"
	"io"
	"os"

	myLogger "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// rotation of the optional log file
const (
	LOG_FILE_MAX_SIZE_MB = 100
	LOG_FILE_MAX_BACKUPS = 5
	LOG_FILE_MAX_AGE_DAY = 30
)

// Terminal output with caller info, used by tests and local runs.
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(textFormatter())
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(textFormatter())
}

func textFormatter() *myLogger.TextFormatter {
	return &myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	}
}

// ParseLevel accepts logrus level names; empty means info.
func ParseLevel(level string) (myLogger.Level, error) {
	if level == "" {
		return myLogger.InfoLevel, nil
	}
	lvl, err := myLogger.ParseLevel(level)
	if err != nil {
		return myLogger.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// ProductionWriter is stdout, teed into a rotated file when filePath is set.
func ProductionWriter(filePath string) io.Writer {
	if filePath == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    LOG_FILE_MAX_SIZE_MB,
		MaxBackups: LOG_FILE_MAX_BACKUPS,
		MaxAge:     LOG_FILE_MAX_AGE_DAY,
	})
}

// This output format is used in production: json lines with timestamps.
func ConfigProductionLogger(level string, filePath string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(lvl)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
	myLogger.SetOutput(ProductionWriter(filePath))
	return nil
}
