// Package client implements the thin protocol client used by the
// docstore command-line tools: one-shot request/response exchanges and
// the reconnecting subscriber loop.
package client
