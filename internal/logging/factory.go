package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/hubauth/internal/filex"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Options selects the backend, level and destination of the client logger.
// An empty File means stderr: stdout belongs to the interactive prompt.
type Options struct {
	Backend string
	Level   string
	File    string
}

// New builds a Logger from opts. The returned close function releases the
// log file (if any) and flushes zap buffers; it is never nil.
func New(opts Options) (Logger, func() error, error) {
	switch opts.Backend {
	case BackendSlog, "":
		return newSlog(opts)
	case BackendZap:
		return newZap(opts)
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func newSlog(opts Options) (Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(orDefault(opts.Level, "info"))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			return nil, nil, err
		}
		w, closeFn = f, f.Close
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), closeFn, nil
}

func newZap(opts Options) (Logger, func() error, error) {
	level, err := zapcore.ParseLevel(orDefault(opts.Level, "info"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	output := "stderr"
	if opts.File != "" {
		if _, err := filex.EnsureParentDir(opts.File, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		output = opts.File
	}

	zl, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig,
	}.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	l := NewZapLogger(zl)
	return l, func() error {
		// Sync on stderr reports EINVAL on some platforms; nothing to flush there.
		_ = l.Sync()
		return nil
	}, nil
}

func openLogFile(path string) (*os.File, error) {
	if _, err := filex.EnsureParentDir(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
