package logkey

// Keys used across slog calls so log aggregation stays consistent.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"
)
