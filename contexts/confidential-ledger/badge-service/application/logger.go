package application

import "log/slog"

// ResolveLogger is shared by the service and the workers package.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
