package ui

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the application logger. It writes to stderr so command output on
// stdout stays clean.
var Log = logrus.New()

// SetLogLevel sets the level of Log from its name.
func SetLogLevel(level string) error {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info", "":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("bad log level %q", level)
	}
	return nil
}
