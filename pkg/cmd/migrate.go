package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/photoarchive/pkg/configs"
	dbc "github.com/yeisme/photoarchive/pkg/internal/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "migrate the metadata database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()

		dbCfg := cfg.DB
		dbCfg.AutoMigrate = false

		client, err := dbc.New(cmd.Context(), dbCfg, dbc.Options{Debug: cfg.Server.Debug})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		if err := client.Migrate(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", dbCfg.Type)

		return nil
	},
}

func registerMigrateCommands() {
	rootCmd.AddCommand(migrateCmd)
}
