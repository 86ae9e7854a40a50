// Package logging provides a simple leveled logging interface for the
// asset cache.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Embedding applications that want to observe swallowed I/O and transfer
// errors can register a hook with SetDiagnostics; it receives every
// warning and error even when the level filters them from the log output.
package logging
