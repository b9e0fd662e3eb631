package unsquashfs

import (
	"fmt"
	"log/slog"
	"time"
)

// disposition is the terminal state of one lifecycle watch.
type disposition int

const (
	dispositionSuccess disposition = iota
	dispositionFailure
	dispositionKilled
)

type outcome struct {
	disposition disposition
	exitCode    int
	err         error
}

// watch drives the lifecycle of one child: it polls for exit, honours a
// pending cancel request by terminating the child, and releases the shared
// extraction slot once the child is gone. Every terminal path runs through
// state.finish, so the cancel flag cannot survive the attempt.
func watch(process Process, st *state, interval time.Duration, logger *slog.Logger) outcome {
	for {
		if st.cancel.Load() {
			return killAndReap(process, st, interval, logger)
		}
		exited, code, err := process.Poll()
		if err != nil {
			st.finish()
			return outcome{err: fmt.Errorf("poll unsquashfs process: %w", err)}
		}
		if exited {
			st.finish()
			if code == 0 {
				return outcome{disposition: dispositionSuccess}
			}
			return outcome{disposition: dispositionFailure, exitCode: code}
		}
		time.Sleep(interval)
	}
}

// killAndReap terminates the child and keeps polling until it has actually
// been reaped, so the slot is only released once the process is gone.
func killAndReap(process Process, st *state, interval time.Duration, logger *slog.Logger) outcome {
	if err := process.Terminate(); err != nil {
		st.finish()
		return outcome{err: fmt.Errorf("terminate unsquashfs process: %w", err)}
	}
	logger.Debug("unsquashfs termination requested")
	for {
		exited, _, err := process.Poll()
		if err != nil {
			st.finish()
			return outcome{err: fmt.Errorf("reap unsquashfs process: %w", err)}
		}
		if exited {
			st.finish()
			return outcome{disposition: dispositionKilled}
		}
		time.Sleep(interval)
	}
}
