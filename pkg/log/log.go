// Package log adapts github.com/luxfi/log's root logger into component
// loggers, the way the teacher repo's pkg/metrics, pkg/websocket, and
// pkg/api construct a logger with log.Root().New("module", name) rather
// than rolling a bespoke logging type.
package log

import luxlog "github.com/luxfi/log"

// Logger re-exports the luxfi/log interface so callers in this module
// don't need to import luxfi/log directly.
type Logger = luxlog.Logger

// New returns a logger scoped to component, tagged so every line it emits
// can be filtered back to its origin.
func New(component string) Logger {
	return luxlog.Root().New("component", component)
}
