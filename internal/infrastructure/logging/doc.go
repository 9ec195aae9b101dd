// Package logging provides structured logging for docstore.
//
// It wraps the standard library's log/slog with configuration-driven
// level, format, and output selection, plus default service attributes.
package logging
