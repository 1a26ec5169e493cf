package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/vedcheck/internal/pipeline"
	"github.com/ppiankov/vedcheck/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ClearCommand on a line of its own returns the session to idle
const ClearCommand = ":clear"

var (
	watchDebounce time.Duration
	watchDwell    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a scanner session fed by scanned texts on stdin",
	Long: `Watch reads one scanned text per line from stdin, typically piped from
a camera QR decoder, and drives a scanner session: repeated scans are
debounced, each accepted code is verified and shown, and the screen goes
back to ready after the dwell time. A line reading ":clear" resets the
session at once.

Example:
  zbarcam --raw | vedcheck watch
  vedcheck watch --debounce 500ms --dwell 3s < scans.txt`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "minimum gap between accepted scans (default from config)")
	watchCmd.Flags().DurationVar(&watchDwell, "dwell", 0, "how long a result stays on screen (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if watchDebounce > 0 {
		cfg.Session.Debounce = watchDebounce
	}
	if watchDwell > 0 {
		cfg.Session.Dwell = watchDwell
	}

	logger := newLogger(cfg)
	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	printer := newPrinter(cmd.OutOrStdout())
	settled := make(chan struct{}, 1)

	s := session.NewFromConfig(p, cfg.Session,
		session.WithLogger(logger),
		session.WithObserver(func(snap session.Snapshot) {
			if err := printer.Snapshot(snap); err != nil {
				logger.Error("render snapshot", "error", err)
			}
			if !snap.Loading() {
				select {
				case settled <- struct{}{}:
				default:
				}
			}
		}),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	if err := feed(ctx, s, cmd.InOrStdin()); err != nil {
		return err
	}

	// let an in-flight verification finish before exiting
	for s.Snapshot().Loading() {
		select {
		case <-settled:
		case <-ctx.Done():
			return nil
		}
	}

	cancel()
	<-runErr
	return nil
}

// feed delivers every line of r to s until r ends or ctx is done
func feed(ctx context.Context, s *session.Session, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ClearCommand:
			s.Clear()
		default:
			s.Scan(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read scans: %w", err)
	}
	return nil
}
