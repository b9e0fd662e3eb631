package pty

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open allocates a pseudo-terminal pair with the given geometry and returns
// the master side plus the device path of the slave side.
func Open(columns, lines uint16) (*os.File, string, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, "", fmt.Errorf("open ptmx: %w", err)
	}
	fd := int(master.Fd())

	number, err := unix.IoctlGetUint32(fd, unix.TIOCGPTN)
	if err != nil {
		_ = master.Close()
		return nil, "", fmt.Errorf("query pty number: %w", err)
	}
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		_ = master.Close()
		return nil, "", fmt.Errorf("unlock pty: %w", err)
	}

	size := unix.Winsize{Row: lines, Col: columns}
	if err := unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, &size); err != nil {
		_ = master.Close()
		return nil, "", fmt.Errorf("set pty size: %w", err)
	}

	return master, fmt.Sprintf("/dev/pts/%d", number), nil
}
