package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
)

func newIntervalCmd(configPath *string) *cobra.Command {
	interval := &cobra.Command{Use: "interval", Short: "Inspect and correct tracking intervals"}

	interval.AddCommand(&cobra.Command{
		Use:   "ls <trackable>",
		Short: "List the intervals of a trackable",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			ivs := s.svc.Intervals(id)
			if len(ivs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no intervals")
				return nil
			}
			now := s.svc.Now()
			for _, iv := range ivs {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), describeInterval(iv, now))
			}
			return nil
		}),
	})

	var intervalID string
	set := &cobra.Command{
		Use:   "set <trackable> <duration>",
		Short: "Change the length of an interval, keeping its end",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return err
			}
			p := timeval.FromDuration(d, timeval.HMS).Parts()
			var got *timeval.Parts
			if intervalID == "" {
				got, err = s.svc.SetCurrentIntervalTime(cmd.Context(), id, p)
			} else {
				got, err = s.svc.SetIntervalTime(cmd.Context(), id, intervalID, p)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "interval is now %s\n", timeval.FromParts(*got, timeval.HMS))
			return nil
		}),
	}
	set.Flags().StringVar(&intervalID, "id", "", "interval id (default is the current interval)")
	interval.AddCommand(set)

	var start, end string
	edit := &cobra.Command{
		Use:   "edit <interval-id>",
		Short: "Set the start and/or end of an interval (RFC 3339 times)",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			var f store.IntervalFields
			var err error
			if f.Start, err = parseInstant(start); err != nil {
				return err
			}
			if f.End, err = parseInstant(end); err != nil {
				return err
			}
			if f.Start == nil && f.End == nil {
				return fmt.Errorf("--start or --end is required")
			}
			got, err := s.svc.EditInterval(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "interval is now %s\n", timeval.FromParts(*got, timeval.HMS))
			return nil
		}),
	}
	edit.Flags().StringVar(&start, "start", "", "new start time")
	edit.Flags().StringVar(&end, "end", "", "new end time")
	interval.AddCommand(edit)

	interval.AddCommand(&cobra.Command{
		Use:   "rm <interval-id>",
		Short: "Delete an interval from its owner and every project above it",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			if !s.svc.DeleteInterval(cmd.Context(), args[0]) {
				return fmt.Errorf("interval %s: %w", args[0], store.ErrNotFound)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted interval %s\n", args[0])
			return nil
		}),
	})
	return interval
}

func parseInstant(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s, err)
	}
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return &secs, nil
}
