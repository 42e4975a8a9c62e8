// Package logging wraps the standard library slog package with apexctl
// defaults: JSON records to stderr, module/version context on every record,
// and level selection via the LOG_LEVEL environment variable or an explicit
// override.
//
// Set the default logger early in main():
//
//	logging.SetDefaultStructuredLogger("apexctl", version)
//	slog.Info("starting", "args", os.Args)
//
// Supported levels (case-insensitive): DEBUG, INFO (default), WARN/WARNING,
// ERROR. Debug level additionally records source locations.
package logging
