// Package logger provides structured logging capabilities.
//
// The logger package sets up the application's logging using zap. A
// development mode gets colored console output; production mode emits JSON
// with ISO 8601 timestamps.
//
// Usage:
//
//	log, err := logger.New("production", "info")
//	if err != nil {
//	    return err
//	}
//	log.Info("server started")
package logger
