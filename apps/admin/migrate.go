package main

import (
	"context"

	"github.com/trezcool/unitrack/storage/database"
)

var runMigrationFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return runMigrationFunc(ctx, cli.db, cli.out, args[0], args[1:]...)
}
