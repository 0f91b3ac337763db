package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mizan/internal/ledger"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Inspect stored balances",
	}
	cmd.AddCommand(balanceCheckCmd())
	return cmd
}

func balanceCheckCmd() *cobra.Command {
	var (
		uid string
		all bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare stored balances with the transaction log",
		Long: `Recomputes each balance as the signed sum of transactions minus the
amounts reserved in goals and reports any drift. Balances are never
modified; a goal deleted after deposits shows up as drift by design of
the ledger, since deleting a goal does not refund it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uid == "" && !all {
				return errors.New("either --user or --all is required")
			}
			ctx := cmd.Context()
			cfg, res, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer res.Cleanup()

			uids := []string{uid}
			if all {
				profiles, err := res.Store.ListProfiles(ctx)
				if err != nil {
					return fmt.Errorf("list profiles: %w", err)
				}
				uids = uids[:0]
				for _, p := range profiles {
					uids = append(uids, p.UID)
				}
			}

			out := cmd.OutOrStdout()
			drifted := 0
			for _, id := range uids {
				sess, err := ledger.Open(ctx, id, ledger.Options{Store: res.Store, Location: cfg.Location()})
				if err != nil {
					return fmt.Errorf("open %s: %w", id, err)
				}
				rec, err := sess.Reconcile(ctx)
				if err != nil {
					return fmt.Errorf("reconcile %s: %w", id, err)
				}
				status := "ok"
				if !rec.Consistent() {
					status = "DRIFT " + rec.Drift().Format()
					drifted++
				}
				fmt.Fprintf(out, "%s  stored=%s  transactions=%s  goals=%s  expected=%s  %s\n",
					id,
					rec.Stored.Format(),
					rec.Transactions.Format(),
					rec.GoalDeposits.Format(),
					rec.Expected.Format(),
					status)
			}
			if drifted > 0 {
				return fmt.Errorf("%d of %d balances drifted", drifted, len(uids))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "user", "", "user id to check")
	cmd.Flags().BoolVar(&all, "all", false, "check every profile")
	return cmd
}
