package capture

import "log/slog"

// FailureSink receives swallowed persistence failures. The engine is
// fail-open — nothing propagates to the UI flow — so the sink is the only
// structured place failures surface, which lets tests assert on them
// without scraping log output.
type FailureSink interface {
	CaptureFailed(op string, err error)
}

// LogSink reports failures to a slog.Logger. It is the default sink.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "capture")}
}

func (s *LogSink) CaptureFailed(op string, err error) {
	s.logger.Warn("capture write failed", "op", op, "error", err)
}
