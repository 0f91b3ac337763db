package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mizan/internal/services"
)

func rolloverCmd() *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Reset obligations paid in an earlier period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, res, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer res.Cleanup()

			p := services.NewRolloverProcessor(res.Store, nil, cfg.Location())
			now := time.Now()
			out := cmd.OutOrStdout()

			if uid != "" {
				n, err := p.ProcessUser(ctx, uid, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d obligation(s) reset\n", uid, n)
				return nil
			}

			r, err := p.ProcessAll(ctx, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "profiles=%d reset=%d failed=%d\n", r.Profiles, r.Reset, r.Failed)
			if r.Failed > 0 {
				return fmt.Errorf("%d profile(s) failed", r.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "user", "", "limit to one user")
	return cmd
}
