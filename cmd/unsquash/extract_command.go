package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"unsquash/internal/config"
	"unsquash/internal/logging"
	"unsquash/internal/services"
	"unsquash/internal/services/unsquashfs"
)

func newExtractCommand(configFlag *string) *cobra.Command {
	var threads int
	var noPTY bool

	cmd := &cobra.Command{
		Use:   "extract <archive> <destination>",
		Short: "Extract a squashfs archive into an existing directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			return runExtract(cmd, cfg, logger, args[0], args[1], threads, noPTY)
		},
	}

	cmd.Flags().IntVarP(&threads, "threads", "p", 0, "Limit unsquashfs to N decompression threads")
	cmd.Flags().BoolVar(&noPTY, "no-pty", false, "Read tool output from a plain pipe instead of a pseudo-terminal")

	return cmd
}

func runExtract(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, archive, dest string, threads int, noPTY bool) error {
	lock := flock.New(destinationLockPath(dest))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire destination lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another extraction is already writing to %s", dest)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	opts := []unsquashfs.Option{
		unsquashfs.WithBinary(cfg.Tool.Binary),
		unsquashfs.WithPollInterval(cfg.PollInterval()),
		unsquashfs.WithLogger(logger),
	}
	if noPTY || !cfg.Tool.UsePTY {
		opts = append(opts, unsquashfs.WithLauncher(unsquashfs.PipeLauncher{}))
	} else {
		opts = append(opts, unsquashfs.WithLauncher(unsquashfs.PTYLauncher{
			Columns: uint16(cfg.Tool.PTYColumns),
			Lines:   uint16(cfg.Tool.PTYLines),
		}))
	}
	client := unsquashfs.New(opts...)

	ctx := services.WithRequestID(cmd.Context(), uuid.NewString())
	ctx = services.WithArchive(ctx, archive)

	reporter := newProgressReporter(logging.WithContext(ctx, logger))
	defer reporter.stop()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	extractDone := make(chan struct{})
	var group errgroup.Group
	group.Go(func() error {
		defer close(extractDone)
		return client.Extract(ctx, archive, dest, threads, reporter.update)
	})
	group.Go(func() error {
		select {
		case <-signalCtx.Done():
			if err := client.Cancel(); err != nil && !errors.Is(err, unsquashfs.ErrNotRunning) {
				return err
			}
		case <-extractDone:
		}
		return nil
	})
	return group.Wait()
}

// destinationLockPath places the lock file next to the destination so
// concurrent invocations against the same directory exclude each other even
// before the tool creates any output.
func destinationLockPath(dest string) string {
	dir := filepath.Dir(filepath.Clean(dest))
	return filepath.Join(dir, "."+filepath.Base(filepath.Clean(dest))+".unsquash.lock")
}
