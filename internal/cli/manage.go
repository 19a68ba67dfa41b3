package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/actra/internal/store"
)

const defaultColor = "#6C63FF"

func newNewCmd(configPath *string) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:       "new activity|project <name>",
		Short:     "Create an activity or a project",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"activity", "project"},
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			c, err := store.ParseHex(color)
			if err != nil {
				return err
			}
			var id string
			switch args[0] {
			case "activity":
				id, err = s.svc.CreateActivity(cmd.Context(), args[1], c)
			case "project":
				id, err = s.svc.CreateProject(cmd.Context(), args[1], c)
			default:
				return fmt.Errorf("unknown kind %q: want activity or project", args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", args[0], args[1], id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&color, "color", defaultColor, "color as #RRGGBB")
	return cmd
}

func newAddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <member>...",
		Short: "Add trackables to a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := resolveAll(s.svc, args)
			if err != nil {
				return err
			}
			var failed []string
			for i, member := range ids[1:] {
				if !s.svc.AddMember(cmd.Context(), ids[0], member) {
					failed = append(failed, args[i+1])
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[i+1], args[0])
			}
			if len(failed) > 0 {
				return fmt.Errorf("could not add %v to %s: not a project, already nested or would form a cycle", failed, args[0])
			}
			return nil
		}),
	}
}

func newRemoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project> <member>...",
		Short: "Remove members from a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := resolveAll(s.svc, args)
			if err != nil {
				return err
			}
			if _, err := s.svc.ProjectMembers(ids[0]); err != nil {
				return err
			}
			s.svc.RemoveMembers(cmd.Context(), ids[0], ids[1:]...)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d members from %s\n", len(ids)-1, args[0])
			return nil
		}),
	}
}

func newJoinCmd(configPath *string) *cobra.Command {
	var (
		color  string
		forget bool
	)
	cmd := &cobra.Command{
		Use:   "join <name> <trackable>...",
		Short: "Merge trackables into one activity holding all their intervals",
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := resolveAll(s.svc, args[1:])
			if err != nil {
				return err
			}
			var c *store.Color
			if color != "" {
				parsed, err := store.ParseHex(color)
				if err != nil {
					return err
				}
				c = &parsed
			}
			joined, err := s.svc.Join(cmd.Context(), args[0], ids, c, forget)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "joined %d trackables into %s (%s)\n", len(ids), joined.Name(), joined.ID())
			return nil
		}),
	}
	cmd.Flags().StringVar(&color, "color", "", "color as #RRGGBB (default is the first trackable's)")
	cmd.Flags().BoolVar(&forget, "forget", false, "do not add the result to the projects that held the originals")
	return cmd
}

func newConvertCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <trackable>",
		Short: "Turn an activity into a project or a project into an activity",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			var t *store.Trackable
			if current := s.svc.Get(id); current != nil && current.IsProject() {
				t, err = s.svc.ConvertProjectToActivity(cmd.Context(), id)
			} else {
				t, err = s.svc.ConvertActivityToProject(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "converted %s to %s\n", t.Name(), t.Kind())
			return nil
		}),
	}
}

func newRenameCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <trackable> <new-name>",
		Short: "Rename a trackable",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := s.svc.Rename(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", args[0], args[1])
			return nil
		}),
	}
}

func newColorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "color <trackable> <#RRGGBB>",
		Short: "Change the color of a trackable",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return err
			}
			c, err := store.ParseHex(args[1])
			if err != nil {
				return err
			}
			return s.svc.Recolor(cmd.Context(), id, c)
		}),
	}
}

func newRmCmd(configPath *string) *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "rm <trackable>...",
		Short: "Delete trackables",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			var errs []error
			for _, ref := range args {
				id, err := s.svc.Resolve(ref)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				s.svc.Delete(cmd.Context(), id, cascade)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", ref)
			}
			return errors.Join(errs...)
		}),
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete the trackable's intervals")
	return cmd
}
