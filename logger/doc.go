// Package logger provides structured logging for gatekit using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// Logs default to stderr so that stdout stays reserved for reports and
// rendered output.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("runner")
//	log.Info("stage finished", logger.StageFields("build", "succeeded"))
package logger
