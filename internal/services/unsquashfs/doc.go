// Package unsquashfs mediates access to the unsquashfs CLI used for
// extracting squashfs archives.
//
// It normalizes command invocation, streams the tool's terminal output into
// deduplicated percentage callbacks plus a diagnostic transcript, and runs a
// lifecycle watcher that honours asynchronous cancellation requests. A Client
// may be shared across goroutines; exactly one extraction can be in flight
// per Client at a time.
//
// Prefer this package over ad-hoc exec.Command usage when interacting with
// unsquashfs so progress reporting and cancellation remain consistent.
package unsquashfs
