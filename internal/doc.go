// Package internal contains the core implementation packages for stamp.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the stamp CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - substitute: The %(...)s engine, lookup chain and handler registry
//   - handlers: Built-in directive handlers (env, date, include, json, upper, lower)
//   - sources: Extra lookup sources decoded from JSON, YAML, TOML and .env files
//   - metadata: Order-preserving bower.json/package.json files, bumping and version checks
//   - build: Release tasks, aliases and the runner that sequences them
//   - config: Configuration loading with defaults and validation
//   - errors: Structured errors and error collection
//   - logging: Structured logging on log/slog
//   - watcher: File system monitoring with debouncing
//   - version: Build information for the binary
//
// # Inter-Package Communication
//
//   - build owns a substitute.Registry populated by handlers and feeds it the
//     lookup chain from metadata and sources
//   - watcher reports debounced changes; cmd reruns build tasks on them
//   - every package reports failures as errors.StampError values and logs
//     through a logging.Logger passed in by the caller
//
// # Testing Strategy
//
//   - Unit tests for individual functions and methods
//   - Property tests behind the property build tag (go test -tags property)
//   - Task tests that run real shell commands in temporary projects
//
// For detailed documentation, see the individual package documentation.
package internal
