package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/photoarchive/pkg/app"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/storage"
)

var (
	accountCmd = &cobra.Command{
		Use:   "account",
		Short: "account maintenance commands",
	}

	// 为待验证账号重新生成验证信息并打印，用于邮件无法送达时人工处理.
	verifyLinkCmd = &cobra.Command{
		Use:   "verify-link <username>",
		Short: "reissue and print the verification link of a pending account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			cfg := configs.GetConfig()

			mgr, err := storage.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, mgr.Close()) }()

			svcs, err := app.NewServices(cfg, mgr)
			if err != nil {
				return err
			}

			account, err := svcs.AccountRepo.GetByUsername(ctx, args[0])
			if err != nil {
				return err
			}

			ch, err := svcs.Verification.Issue(ctx, account)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "link:", ch.Link)

			if ch.Code != "" {
				fmt.Fprintln(out, "code:", ch.Code)
				fmt.Fprintln(out, "expires:", ch.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			}

			return nil
		},
	}
)

func registerAccountCommands() {
	accountCmd.AddCommand(verifyLinkCmd)
	rootCmd.AddCommand(accountCmd)
}
