package logger

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var jsonFormatter = &log.JSONFormatter{
	TimestampFormat: "2006-01-02T15:04:05Z07:00",
}

func init() {
	log.SetFormatter(jsonFormatter)
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// Configure sets the global level and format. Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "text") {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(jsonFormatter)
	}
}

// SetOutput redirects log output, mainly for tests. A nil writer restores
// stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	log.SetOutput(w)
}

// Standard exposes the underlying logrus logger for libraries that accept a
// Printf/Fatalf style logger.
func Standard() *log.Logger {
	return log.StandardLogger()
}

func Debug(message string, fields map[string]any) {
	log.WithFields(fields).Debug(message)
}

func Info(message string, fields map[string]any) {
	log.WithFields(fields).Info(message)
}

func Warn(message string, fields map[string]any) {
	log.WithFields(fields).Warn(message)
}

func Error(message string, fields map[string]any) {
	log.WithFields(fields).Error(message)
}

// Fatal logs and exits the process.
func Fatal(message string, fields map[string]any) {
	log.WithFields(fields).Fatal(message)
}
