package logger

import (
	"fmt"
	"log"
	"os"
)

// New returns a stderr logger for messages emitted before slog is configured.
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("linkstrategist[%s] ", component)
	return log.New(os.Stderr, prefix, log.LstdFlags|log.Lmsgprefix)
}
