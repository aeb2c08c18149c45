// Package logging provides structured logging configuration for the webserver.
//
// This package wraps log/slog to provide consistent logging across the
// facade, the CLI and the test SDK. It supports configurable log levels and
// output formats.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server listening", "host", "localhost", "port", 5001)
//
// # Fan-out
//
// NewMultiHandler writes every record to several handlers, which the CLI uses
// to mirror stderr output into a log file.
//
// # Integration
//
// Components accept a *slog.Logger through an option.
// If no logger is provided, they use logging.Nop().
package logging
