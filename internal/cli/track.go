package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tui"
)

func runTUI(exportDir string) func(*cobra.Command, *session, []string) error {
	return func(cmd *cobra.Command, s *session, _ []string) error {
		p := tea.NewProgram(tui.NewApp(s.svc, exportDir), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		_, err := p.Run()
		return err
	}
}

func newTUICmd(configPath *string) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(configPath, runTUI(exportDir))(cmd, args)
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for exports (default is the home directory)")
	return cmd
}

func newListCmd(configPath *string) *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the trackable tree with totals",
		Args:    cobra.NoArgs,
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, _ []string) error {
			nodes := s.svc.Tree(wf.window(cmd))
			out := cmd.OutOrStdout()
			if len(nodes) == 0 {
				_, _ = fmt.Fprintln(out, "no trackables")
				return nil
			}
			for _, n := range nodes {
				marker := " "
				if n.State == store.Active {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %s%s\t%s\t%s\t%s\n",
					marker, strings.Repeat("  ", n.Depth), n.Name, n.Kind, n.Total, n.ID)
			}
			return nil
		}),
	}
	wf.register(cmd)
	return cmd
}

func newStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start <trackable>",
		Short: "Start tracking, stopping whatever else is running",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			st, err := s.svc.Start(cmd.Context(), id)
			if err != nil {
				return err
			}
			if st.Message != "success" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), st.Message)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tracking %s (%s)\n", st.Name, st.Kind)
			return nil
		}),
	}
}

func newStopCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [trackable]",
		Short: "Stop tracking (defaults to the currently active trackable)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			var id string
			if len(args) == 1 {
				var err error
				if id, err = s.svc.Resolve(args[0]); err != nil {
					return err
				}
			} else if id = s.svc.CurrentlyActive(); id == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing is being tracked")
				return nil
			}
			st, err := s.svc.Stop(cmd.Context(), id)
			if err != nil {
				return err
			}
			if st.CurrentInterval == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopped %s\n", st.Name)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopped %s after %s\n", st.Name, timeval.FromParts(*st.CurrentInterval, timeval.HMS))
			return nil
		}),
	}
}

func newTotalCmd(configPath *string) *cobra.Command {
	var (
		wf     windowFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "total <trackable>",
		Short: "Print the tracked time of a trackable",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			v, err := s.svc.Total(id, wf.window(cmd), f)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatTotal(v))
			return nil
		}),
	}
	wf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "hms", "output units: hms, ms or s")
	return cmd
}

func formatTotal(v timeval.Value) string {
	p := v.Parts()
	switch v.Format() {
	case timeval.S:
		return fmt.Sprintf("%gs", p.Seconds)
	case timeval.MS:
		return fmt.Sprintf("%gm %gs", p.Mins, p.Seconds)
	}
	return v.String()
}

func newSpanCmd(configPath *string) *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   "span",
		Short: "List the intervals inside a time window, grouped by trackable",
		Args:  cobra.NoArgs,
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, _ []string) error {
			out := cmd.OutOrStdout()
			entries := s.svc.WithinSpan(wf.window(cmd))
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "no intervals")
				return nil
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(out, "%s (%s)\t%s\n", e.Trackable.Name(), e.Trackable.Kind(), e.Selected)
				for _, iv := range e.Intervals {
					_, _ = fmt.Fprintf(out, "  %s\n", describeInterval(iv, s.svc.Now()))
				}
			}
			return nil
		}),
	}
	wf.register(cmd)
	return cmd
}

func describeInterval(iv *store.Interval, now float64) string {
	end := "running"
	if iv.End != nil {
		end = formatEpoch(*iv.End)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", iv.ID, formatEpoch(iv.Start), end, iv.Duration(timeval.HMS, now))
}
