// Package logger provides structured logging backed by zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. Middleware stages and the request adapter obtain
// their loggers from here so that every exchange is logged with the same
// field names.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("middleware")
//	log.Debug("request sent", logger.Fields(logger.FieldMethod, "GET"))
package logger
