package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/photoarchive/pkg/configs"
	dbc "github.com/yeisme/photoarchive/pkg/internal/storage/db"
	"github.com/yeisme/photoarchive/pkg/internal/storage/kv"
	"github.com/yeisme/photoarchive/pkg/internal/storage/mq"
)

// backendCommand 生成 `<name> ls` 子命令，打印编译进二进制的后端类型并标出当前配置使用的那一个.
func backendCommand(name, short string, current func(*configs.AppConfig) string, registered func() []string) *cobra.Command {
	parent := &cobra.Command{
		Use:   name,
		Short: short,
	}

	parent.AddCommand(&cobra.Command{
		Use:     "ls",
		Short:   "list registered " + name + " backends",
		Aliases: []string{"list", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			active := current(configs.GetConfig())
			out := cmd.OutOrStdout()

			for _, t := range registered() {
				marker := " "
				if t == active {
					marker = "*"
				}

				fmt.Fprintf(out, "%s %s\n", marker, t)
			}
		},
	})

	return parent
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}

	return out
}

func registerDBCommands() {
	rootCmd.AddCommand(backendCommand("db", "metadata database backends",
		func(cfg *configs.AppConfig) string { return string(cfg.DB.Type) },
		func() []string { return stringsOf(dbc.GetRegisteredDBTypes()) },
	))
}

func registerKVCommands() {
	rootCmd.AddCommand(backendCommand("kv", "key-value store backends",
		func(cfg *configs.AppConfig) string { return cfg.KV.Type },
		func() []string { return stringsOf(kv.GetRegisteredKVTypes()) },
	))
}

func registerMQCommands() {
	rootCmd.AddCommand(backendCommand("mq", "message queue backends",
		func(cfg *configs.AppConfig) string { return string(cfg.MQ.Type) },
		func() []string { return stringsOf(mq.GetRegisteredTypes()) },
	))
}
