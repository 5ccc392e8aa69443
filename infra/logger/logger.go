package logger

import corelogger "github.com/kilianp07/dayplan/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// New returns a Logger tagged with component. Output format follows APP_ENV
// and the minimum level follows LOG_LEVEL (debug, info, warn, error).
func New(component string) Logger {
	return NewZerologLogger(component)
}
