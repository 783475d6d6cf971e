package logging

import (
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Root is the logger name prefix shared by every component
const Root = "novelreader"

// Configure sets up the simple backend. An empty path logs to stderr.
func Configure(verbosity int, path string) error {
	if path == "" {
		commonlog.Configure(verbosity, nil)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	commonlog.Configure(verbosity, &path)
	return nil
}

// GetLogger returns the named logger for a component
func GetLogger(component string) commonlog.Logger {
	return commonlog.GetLogger(Root + "." + component)
}

// DefaultPath returns the log file location used by the daemon
func DefaultPath() string {
	return filepath.Join(os.TempDir(), Root, Root+".log")
}
