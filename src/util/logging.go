package util

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ---------------------
// ----- functions -----
// ---------------------

// SetupLogging configures logrus's global formatter and level for the
// process: full timestamps on every line, written to stderr, at debug
// level when verbose is set and warn level otherwise (§4.7). Every
// logrus.Entry the rest of the program constructs (main.go's own, and the
// one it hands to exec.State.SetLogger) inherits this configuration.
func SetupLogging(verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}
