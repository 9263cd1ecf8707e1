// Package logging provides structured logging with correlation ID support
// for camrig.
//
// It implements a centralized logging system on top of Logrus: structured
// fields, correlation ID propagation across a capture batch, per-component
// logger instances, and configurable output destinations (console, file
// with lumberjack rotation, both, or neither).
//
// Usage:
//   - Create a component logger: logging.GetLogger("capture")
//   - Configure globally once at startup: logging.SetupLogging(cfg)
//   - Tag a batch: logging.WithCorrelationID(ctx, id)
package logging
