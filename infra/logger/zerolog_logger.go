package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of rs/zerolog.
type ZerologLogger struct {
	z zerolog.Logger
}

func writer(w io.Writer) io.Writer {
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return w
}

// NewZerologLogger writes JSON lines tagged with component to the package
// output; APP_ENV=dev switches to the console format.
func NewZerologLogger(component string) Logger {
	return &ZerologLogger{
		z: zerolog.New(writer(output())).With().Timestamp().Str("component", component).Logger(),
	}
}

func (l *ZerologLogger) Debugf(format string, args ...any) { l.z.Debug().Msgf(format, args...) }

// Debugw attaches fields as top-level keys.
func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.z.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any)  { l.z.Info().Msgf(format, args...) }
func (l *ZerologLogger) Warnf(format string, args ...any)  { l.z.Warn().Msgf(format, args...) }
func (l *ZerologLogger) Errorf(format string, args ...any) { l.z.Error().Msgf(format, args...) }
