// Package logfilewriter mirrors human readable build_runner output into a file the user can tail.
package logfilewriter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/internal/serverinfofile"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const _fmtOutputKey = "output:%s"

// Params define the dependencies for SetupOutputWriter.
type Params struct {
	FS             fs.BrlspFS
	Lifecycle      fx.Lifecycle
	ServerInfoFile serverinfofile.ServerInfoFile
}

// SetupOutputWriter creates a writer backed by a temporary file under a directory named after name.
// The file path is stored in the server info file so that editors can tail it.
func SetupOutputWriter(p Params, name string) (io.Writer, error) {
	logsDirPath := filepath.Join(os.TempDir(), name)
	if err := p.FS.MkdirAll(logsDirPath); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	logFile, err := p.FS.TempFile(logsDirPath, "output-*.log")
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	if err := p.ServerInfoFile.UpdateField(fmt.Sprintf(_fmtOutputKey, name), logFile.Name()); err != nil {
		logFile.Close()
		return nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)
	outputLogger := zap.New(core).Sugar()

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = outputLogger.Sync()
			return multierr.Append(logFile.Close(), p.FS.Remove(logFile.Name()))
		},
	})

	return &loggerWriter{logger: outputLogger}, nil
}

type loggerWriter struct {
	logger *zap.SugaredLogger
}

// Write logs each non-empty line of p separately.
func (o *loggerWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(string(p), "\n")
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if len(line) > 0 {
			o.logger.Info(line)
		}
	}

	return len(p), nil
}
