package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/actra/internal/config"
	"github.com/sadopc/actra/internal/export"
	"github.com/sadopc/actra/internal/persist"
	"github.com/sadopc/actra/internal/store"
)

func newExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export every interval as CSV or JSON, chosen by the file extension",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, args []string) error {
			var rows []export.Row
			s.svc.View(func(st *store.Store) {
				rows = export.Rows(st)
			})

			path := args[0]
			var err error
			switch strings.ToLower(filepath.Ext(path)) {
			case ".csv":
				err = export.ToCSV(rows, path)
			case ".json":
				err = export.ToJSON(rows, path)
			default:
				return fmt.Errorf("export %s: want a .csv or .json file", path)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d intervals to %s\n", len(rows), path)
			return nil
		}),
	}
}

func newSnapshotsCmd(configPath *string) *cobra.Command {
	var prune int
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List saved snapshots (sqlite backend)",
		Args:  cobra.NoArgs,
		RunE: withSession(configPath, func(cmd *cobra.Command, s *session, _ []string) error {
			db, ok := s.backend.(*persist.SQLiteBackend)
			if !ok {
				return fmt.Errorf("snapshot history needs the sqlite backend, not %s", s.cfg.Storage.Backend)
			}
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("prune") {
				n, err := db.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "pruned %d snapshots\n", n)
			}
			history, err := db.History(cmd.Context())
			if err != nil {
				return err
			}
			for _, snap := range history {
				_, _ = fmt.Fprintf(out, "%d\t%s\t%s\t%d bytes\n", snap.ID, snap.SavedAt.Local().Format("2006-01-02 15:04:05"), snap.StoreID, snap.Size)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&prune, "prune", 0, "keep only this many newest snapshots")
	return cmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or create the config file"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := *configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}
