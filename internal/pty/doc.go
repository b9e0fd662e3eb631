// Package pty allocates Linux pseudo-terminal pairs for child processes
// whose progress output is only rendered when a terminal is attached.
//
// The geometry of the slave side is fixed at open time so the child's
// line-oriented progress formatting stays stable and parseable.
package pty
