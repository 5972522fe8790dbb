// Package cmd provides the command-line interface for stamp.
//
// This package implements all CLI commands using the Cobra framework. Each
// task of the release workflow is its own command, and the aliases that
// chain them (build, release) are commands too.
//
// # Available Commands
//
//   - build: Lint, clean, copy and minify
//   - release: Bump the version, then build
//   - run: Run any mix of tasks and aliases in order
//   - lint, clean, copy, minify, bump, versioncheck: Run a single task
//   - render: Substitute %(...)s markers in a template
//   - handlers: List the directive handlers
//   - watch: Rerun tasks when sources change
//   - version: Show build information
//
// # Command Examples
//
//	// Build with debug logging
//	stamp build --log-level debug
//
//	// Minor release
//	stamp release --level minor
//
//	// Bump then check every artifact agrees
//	stamp run release versioncheck
//
//	// Render a template with an extra value
//	stamp render --set channel=beta NOTICE.tmpl
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (STAMP_*)
//  3. Configuration file (.stamp.yml)
//  4. Default values (lowest priority)
//
// # Error Handling
//
// Task failures are reported as structured errors naming the task and, where
// one is involved, the file. Unresolved markers are only logged unless
// substitution.strict is set, in which case the output is still written and
// the command then fails.
package cmd
