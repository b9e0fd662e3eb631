package unsquashfs

import (
	"errors"
	"fmt"
	"strings"

	"unsquash/internal/services"
)

var (
	// ErrBinaryNotFound reports that the unsquashfs binary is not resolvable
	// on the host. No child process is spawned in that case.
	ErrBinaryNotFound = fmt.Errorf("%w: unsquashfs binary", services.ErrNotFound)

	// ErrNotRunning reports a Cancel call while no extraction is in flight.
	ErrNotRunning = fmt.Errorf("%w: no extraction in flight", services.ErrUsage)

	// ErrBusy reports an Extract call while another extraction on the same
	// Client has not resolved yet.
	ErrBusy = fmt.Errorf("%w: extraction already in flight", services.ErrUsage)

	// ErrCancelled reports an extraction that was terminated by Cancel.
	ErrCancelled = errors.New("extraction cancelled")
)

// ExitError reports a child that exited with a non-zero status. Transcript
// carries everything the tool printed outside of progress lines, each line
// newline-terminated, in the order observed.
type ExitError struct {
	Code       int
	Transcript string
}

func (e *ExitError) Error() string {
	transcript := strings.TrimRight(e.Transcript, "\n")
	if transcript == "" {
		return fmt.Sprintf("unsquashfs exited with status %d", e.Code)
	}
	return fmt.Sprintf("unsquashfs exited with status %d:\n%s", e.Code, transcript)
}
