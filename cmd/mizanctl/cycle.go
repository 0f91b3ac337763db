package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mizan/internal/core"
	"mizan/internal/cycle"
)

func cycleCmd() *cobra.Command {
	var (
		startDay int
		date     string
		tz       string
		count    int
	)

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Show the financial cycle containing a date",
		Example: `  mizanctl cycle
  mizanctl cycle --start-day 1 --date 2024-03-15
  mizanctl cycle --count 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cycle.ValidateStartDay(startDay); err != nil {
				return fmt.Errorf("--start-day %d: %w", startDay, err)
			}
			loc, err := cycle.LoadLocation(tz)
			if err != nil {
				return err
			}

			ref := time.Now().In(loc)
			if date != "" {
				ref, err = time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			c := cycle.ForDate(ref, startDay)
			for i := 0; i < max(count, 1); i++ {
				fmt.Fprintf(out, "%-8s %s → %s  %2d days  %s\n",
					c.ID,
					c.Start.Format("2006-01-02"),
					c.End.Format("2006-01-02"),
					c.Days(),
					cycle.FormatDisplay(c))
				c = c.Next()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&startDay, "start-day", core.DefaultCycleStartDay, "day of month the cycle starts on (1-28)")
	cmd.Flags().StringVar(&date, "date", "", "reference date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&tz, "tz", "Local", "timezone to compute boundaries in")
	cmd.Flags().IntVar(&count, "count", 1, "number of consecutive cycles to list")
	return cmd
}
