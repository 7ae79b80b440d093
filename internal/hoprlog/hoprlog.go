// Package hoprlog provides the shared logging backend used across this
// module's components, built atop the same logging library the teacher
// codebase uses.
package hoprlog

import (
	"os"

	logging "gopkg.in/op/go-logging.v1"
)

var backendInitialized bool

// Setup installs a leveled, formatted stderr backend for the named
// process. It is idempotent; later calls only adjust the level.
func Setup(processName string, level logging.Level) {
	format := logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`,
	)
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
	backendInitialized = true
	_ = processName
}

// GetLogger returns a logger for the named component, initializing a
// sane default backend if Setup was never called.
func GetLogger(component string) *logging.Logger {
	if !backendInitialized {
		Setup("hopr-mixnode", logging.INFO)
	}
	return logging.MustGetLogger(component)
}
