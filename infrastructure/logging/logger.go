package logging

import (
	"fmt"
	"io"
	"strings"

	gologging "github.com/op/go-logging"
)

// Module is the go-logging module name used by every component
const Module = "reels-relay"

const format = "%{time:2006-01-02 15:04:05} [%{level}] %{message}"

// ParseLevel converts a level name such as INFO or debug into a go-logging level
func ParseLevel(name string) (gologging.Level, error) {
	if name == "" {
		return gologging.INFO, nil
	}
	level, err := gologging.LogLevel(strings.ToUpper(name))
	if err != nil {
		return gologging.INFO, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// New returns a logger that writes human-readable lines to w at or above level
func New(w io.Writer, level gologging.Level) *gologging.Logger {
	log := gologging.MustGetLogger(Module)
	backend := gologging.NewLogBackend(w, "", 0)
	formatted := gologging.NewBackendFormatter(backend, gologging.MustStringFormatter(format))
	leveled := gologging.AddModuleLevel(formatted)
	leveled.SetLevel(level, Module)
	log.SetBackend(leveled)
	return log
}

// Discard returns a logger that drops everything, for tests
func Discard() *gologging.Logger {
	return New(io.Discard, gologging.CRITICAL)
}
