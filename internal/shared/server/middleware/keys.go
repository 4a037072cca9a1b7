package middleware

// Context keys set by handlers and read by Logging.
const (
	RunIDKey    = "runId"
	FileNameKey = "fileName"
)
