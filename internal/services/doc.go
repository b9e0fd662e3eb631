// Package services defines shared utilities consumed by the extraction
// supervisor and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp request identifiers and archive paths for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across components.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the tool.
package services
