package migrate

import (
	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrateDownCmdOptions struct {
	DatabaseURL string
	Source      string
}

func NewMigrateDownCommand() *cobra.Command {
	opts := &migrateDownCmdOptions{}

	cmd := &cobra.Command{
		Use:   "down [N]",
		Short: "Apply all or N down migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseSteps(args)
			if err != nil {
				return errors.WithStack(err)
			}
			return migrateDownHandler(opts, n)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.DatabaseURL, "database", "", "Database url to run migration on")
	flags.StringVar(&opts.Source, "source", defaultMigrationSource, "Path to migrations directory")

	return cmd
}

func migrateDownHandler(opts *migrateDownCmdOptions, n int) error {
	m, err := newMigrator(opts.DatabaseURL, opts.Source)
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		m.Log.Printf("Applying down migrations...\n")
		err = m.Down()
	} else {
		m.Log.Printf("Applying %d down migrations...\n", n)
		err = m.Steps(-n)
	}
	if err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return errors.Wrap(err, "failed to apply down migrations")
		}
		m.Log.Printf("Migrations already up-to-date\n")
	}
	return nil
}
