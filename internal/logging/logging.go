// Package logging builds the structured loggers shared by the engine, the
// dispatcher and the host modules.
package logging

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the logger type accepted throughout the module. A nil *Logger
// is valid and discards everything.
type Logger = logiface.Logger[logiface.Event]

// New returns a logger writing JSON lines to w, dropping events less severe
// than level.
func New(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// Discard returns the logger that drops every event.
func Discard() *Logger {
	return nil
}
