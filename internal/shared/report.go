package shared

import "github.com/charmbracelet/log"

// Reporter is the sink for failures that are recovered locally but should still be observed,
// such as a single playlist failing to scan or a batch of track ids the API no longer serves.
type Reporter interface {
	Report(err error, kv ...any) // Report records a recovered error with optional key-value context
	Warn(msg string, kv ...any)  // Warn records a non-fatal condition
}

// LogReporter implements [Reporter] on top of a [log.Logger].
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a [LogReporter]. A nil logger falls back to [NewLogger] on stderr.
func NewLogReporter(l *log.Logger) *LogReporter {
	if l == nil {
		l = NewLogger(nil)
	}
	return &LogReporter{logger: l}
}

func (r *LogReporter) Report(err error, kv ...any) {
	r.logger.Error(err.Error(), kv...)
}

func (r *LogReporter) Warn(msg string, kv ...any) {
	r.logger.Warn(msg, kv...)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(error, ...any) {}
func (NopReporter) Warn(string, ...any)  {}
