package handler

import (
	"fmt"

	"github.com/dart-tools/brlsp/src/brlsp/internal/serverinfofile"
	"go.uber.org/config"
)

const (
	_configKeyLogging     = "logging"
	_configKeyOutputPaths = "outputPaths"

	_fmtInfoFileKey = "log:%d"
)

// Output the daemon's log file locations from the logging configuration block, so editors can offer to open them.
// Standard streams are skipped since there is no file to open.
func outputLogPaths(cfg config.Provider, infofile serverinfofile.ServerInfoFile) error {
	var outputPaths []string
	if err := cfg.Get(_configKeyLogging).Get(_configKeyOutputPaths).Populate(&outputPaths); err != nil {
		return fmt.Errorf("loading logging config: %w", err)
	}

	index := 0
	for _, path := range outputPaths {
		if path == "stdout" || path == "stderr" {
			continue
		}
		if err := infofile.UpdateField(fmt.Sprintf(_fmtInfoFileKey, index), path); err != nil {
			return fmt.Errorf("outputting log path %q to info file: %w", path, err)
		}
		index++
	}

	return nil
}
