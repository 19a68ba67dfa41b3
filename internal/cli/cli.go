// Package cli wires configuration, logging, persistence and the tracker
// service into the actra command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/actra/internal/config"
	"github.com/sadopc/actra/internal/logging"
	"github.com/sadopc/actra/internal/persist"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tracker"
)

// session is everything one command invocation needs.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	closer  io.Closer
	backend persist.Backend
	queue   *persist.Queue
	svc     *tracker.Service
}

func openSession(ctx context.Context, configPath string) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	backend, err := persist.Open(cfg.Storage, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}
	queue := persist.NewQueue(backend, logger)
	svc := tracker.New(queue, logger)
	if !svc.Load(ctx) {
		queue.Close()
		closer.Close()
		return nil, fmt.Errorf("load %s store at %s failed, see %s", cfg.Storage.Backend, cfg.Storage.Path, cfg.Log.File)
	}
	logger.Debug("session opened",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("path", cfg.Storage.Path),
		slog.String("store", svc.StoreID()),
	)
	return &session{cfg: cfg, logger: logger, closer: closer, backend: backend, queue: queue, svc: svc}, nil
}

func (s *session) Close() error {
	return errors.Join(s.queue.Close(), s.closer.Close())
}

// withSession opens a session around fn and closes it afterwards.
func withSession(configPath *string, fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), *configPath)
		if err != nil {
			return err
		}
		runErr := fn(cmd, s, args)
		if err := s.Close(); err != nil && runErr == nil {
			return fmt.Errorf("close session: %w", err)
		}
		return runErr
	}
}

// NewRootCmd builds the actra command tree. With no subcommand it opens the
// terminal UI.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "actra",
		Short:         "Track time across nested activities and projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withSession(&configPath, runTUI("")),
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is config.yaml in the user config dir)")

	root.AddCommand(newTUICmd(&configPath))
	root.AddCommand(newListCmd(&configPath))
	root.AddCommand(newNewCmd(&configPath))
	root.AddCommand(newAddCmd(&configPath))
	root.AddCommand(newRemoveCmd(&configPath))
	root.AddCommand(newStartCmd(&configPath))
	root.AddCommand(newStopCmd(&configPath))
	root.AddCommand(newTotalCmd(&configPath))
	root.AddCommand(newSpanCmd(&configPath))
	root.AddCommand(newJoinCmd(&configPath))
	root.AddCommand(newConvertCmd(&configPath))
	root.AddCommand(newRenameCmd(&configPath))
	root.AddCommand(newColorCmd(&configPath))
	root.AddCommand(newRmCmd(&configPath))
	root.AddCommand(newIntervalCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newSnapshotsCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	return root
}

// Execute runs the root command against ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// windowFlags are the --since/--until offsets shared by reporting commands.
type windowFlags struct {
	since time.Duration
	until time.Duration
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&w.since, "since", 0, "only count time after now minus this duration (e.g. 24h)")
	cmd.Flags().DurationVar(&w.until, "until", 0, "only count intervals starting before now minus this duration")
}

// window returns nil when neither flag was given.
func (w windowFlags) window(cmd *cobra.Command) *store.Window {
	sinceSet := cmd.Flags().Changed("since")
	untilSet := cmd.Flags().Changed("until")
	if !sinceSet && !untilSet {
		return nil
	}
	win := &store.Window{}
	if sinceSet {
		p := timeval.FromDuration(w.since, timeval.HMS).Parts()
		win.Since = &p
	}
	if untilSet {
		p := timeval.FromDuration(w.until, timeval.HMS).Parts()
		win.Until = &p
	}
	return win
}

func parseFormat(s string) (timeval.Format, error) {
	switch s {
	case "hms", "":
		return timeval.HMS, nil
	case "ms":
		return timeval.MS, nil
	case "s":
		return timeval.S, nil
	}
	return 0, fmt.Errorf("unknown format %q: want hms, ms or s", s)
}

func resolveAll(svc *tracker.Service, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := svc.Resolve(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatEpoch(secs float64) string {
	sec := int64(secs)
	nsec := int64((secs - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Local().Format("2006-01-02 15:04:05")
}
