package server

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// NewLogger builds the server logger. With a log file configured, output
// goes to a rotating file, and to stderr as well in debug mode.
//
// Only a terminal stderr without a log file gets colored console output;
// everything else is plain JSON. This also sets color.NoColor.
func NewLogger(cfg LogConfig, stderr io.Writer) zerolog.Logger {
	if stderr == nil {
		stderr = os.Stderr
	}

	console := cfg.File == "" && isTerminal(stderr)
	color.NoColor = !console

	output := stderr
	if console {
		output = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	}
	if cfg.File != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		output = fileLogger
		if cfg.Debug {
			output = io.MultiWriter(fileLogger, stderr)
		}
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// logRequest logs a handled request with a color-coded status
func logRequest(logger zerolog.Logger, method, path string, status int) {
	code := strconv.Itoa(status)
	var line string
	switch status {
	case StatusOK:
		line = color.GreenString("%s %s %s", method, path, code)
	case StatusNotFound, StatusMethodNotAllowed:
		line = color.RedString("%s %s %s", method, path, code)
	case StatusInternalServerError:
		line = color.YellowString("%s %s %s", method, path, code)
	default:
		line = method + " " + path + " " + code
	}
	logger.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Msg(line)
}
