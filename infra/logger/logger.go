package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/powermatch/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

var (
	mu  sync.RWMutex
	out io.Writer = os.Stderr
)

// SetLevel sets the global minimum level, e.g. "debug" or "warn".
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// SetOutput redirects loggers created afterwards. Reports go to stdout, so
// logs default to stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
