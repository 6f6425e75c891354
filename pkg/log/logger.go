package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SetupLogger configures the slog default logger and the zerolog provider
// at the given level, both writing to stderr. Invalid levels panic; validate
// with ParseLevel first when the value comes from user input.
func SetupLogger(loglevel string) {
	SetupLoggerTo(os.Stderr, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination. slog records
// are JSON objects with "severity" and "message" keys; errors passed through
// ErrAttr gain "stacktrace" and "error_kind".
func SetupLoggerTo(w io.Writer, loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	}
	slog.SetDefault(slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))))

	level, _ := ParseLevel(loglevel)
	SetProvider(NewZerologProvider(w, level))
}

// ParseLevel converts a level name into a Level.
func ParseLevel(level string) (Level, error) {
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

func ToLogLevel(level string) slog.Level {
	lv, err := ParseLevel(level)
	if err != nil {
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
	return slog.Level(lv)
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
	ErrorKindAttrKey  = "error_kind"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
