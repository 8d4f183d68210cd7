// Package cmd 提供 photoarchive 命令行入口.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "photoarchive",
		Short:         "Account verification and permission-checked photo storage service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			if debug {
				cfg := configs.GetConfig()
				cfg.Server.Debug = true
				configs.SetConfig(*cfg)
			}

			log.Init()

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file or directory (default: ./config.*)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")

	registerServeCommands()
	registerMigrateCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerAccountCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
