package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/open-data-gateway/internal/adapter/postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// migrator is the subset of postgres.Migrator the commands drive.
type migrator interface {
	Up() error
	Down(steps int) error
	Version() (uint, bool, error)
	Close() error
}

type app struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	out    io.Writer
	logger *slog.Logger

	newMigrator func(databaseURL string, logger *slog.Logger) (migrator, error)
}

func newApp(out io.Writer) *app {
	a := &app{
		viper:  viper.New(),
		out:    out,
		logger: slog.New(slog.NewTextHandler(out, nil)),
		newMigrator: func(databaseURL string, logger *slog.Logger) (migrator, error) {
			return postgres.NewMigrator(databaseURL, logger)
		},
	}

	a.cmd = &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the open-data gateway database schema",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	a.cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL (env DATABASE_URL)")

	if err := a.viper.BindEnv("database-url", "DATABASE_URL"); err != nil {
		panic(fmt.Errorf("bind DATABASE_URL: %w", err))
	}
	if err := a.viper.BindPFlag("database-url", a.cmd.PersistentFlags().Lookup("database-url")); err != nil {
		panic(fmt.Errorf("bind database-url flag: %w", err))
	}

	a.cmd.AddCommand(a.upCmd(), a.downCmd(), a.versionCmd())
	return a
}

func (a *app) run(args []string) error {
	a.cmd.SetArgs(args)
	a.cmd.SetOut(a.out)
	return a.cmd.Execute()
}

func (a *app) upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.withMigrator(func(m migrator) error { return m.Up() })
		},
	}
}

func (a *app) downCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.withMigrator(func(m migrator) error { return m.Down(steps) })
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return err
			})
		},
	}
}

func (a *app) withMigrator(fn func(migrator) error) (err error) {
	databaseURL := a.viper.GetString("database-url")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	m, err := a.newMigrator(databaseURL, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close migrator: %w", cerr))
		}
	}()

	return fn(m)
}
