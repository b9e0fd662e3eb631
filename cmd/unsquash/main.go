package main

import (
	"errors"
	"fmt"
	"os"

	"unsquash/internal/services"
	"unsquash/internal/services/unsquashfs"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, unsquashfs.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "extraction cancelled")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(services.ExitCode(err))
	}
}
