// Package logger configures the global zerolog logger for both playdeck
// binaries. The server logs to the console; the terminal player owns the
// screen, so it writes JSON lines to a file, by default DefaultFile().
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// DefaultFileName is the log file name used under the user cache directory.
const DefaultFileName = "playdeck.log"

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or a file path
	Level  string // "debug", "info", "warn", "error"
	File   string // File opened when Output is a path; its directory is created
}

// Init replaces the global logger. Console outputs get colored lines, file
// outputs get JSON. Debug level adds the caller.
func Init(cfg Config) error {
	level := parseLevel(cfg.Level)

	out := strings.ToLower(cfg.Output)
	console := out == "" || out == "stdout" || out == "stderr"

	var logger zerolog.Logger
	if console {
		writer := io.Writer(os.Stdout)
		if out == "stderr" {
			writer = os.Stderr
		}
		logger = consoleLogger(writer, level)
	} else {
		f, err := openFile(cfg.File)
		if err != nil {
			return err
		}
		logger = fileLogger(f, level)
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.CallerMarshalFunc = shortCaller

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
	return nil
}

func consoleLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	if level != zerolog.DebugLevel {
		return zerolog.New(cw).With().Timestamp().Logger()
	}
	cw.PartsOrder = []string{"time", "level", "message", "caller"}
	cw.FormatCaller = func(i interface{}) string {
		return "(" + i.(string) + ")"
	}
	return zerolog.New(cw).With().Timestamp().Caller().Logger()
}

func fileLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func openFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}
	return f, nil
}

// shortCaller keeps the last directory and the file name, e.g. "mpv/ipc.go:42".
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// DefaultFile returns <user cache dir>/playdeck/playdeck.log, where the
// terminal player logs unless --logfile is given.
func DefaultFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user cache directory")
	}
	return filepath.Join(dir, "playdeck", DefaultFileName), nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
