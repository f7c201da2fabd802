// Package logging builds the slog loggers used across autolist.
//
// It offers a console handler tuned for interactive runs, a JSON handler for
// machine-readable logs, attribute helpers shared by every component, and a
// no-op logger for tests. Loggers are constructed once from configuration and
// passed down; packages never reach for a global logger.
package logging
