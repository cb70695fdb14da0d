package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// PointsCmd prints the cumulative points total and a short recent history.
func PointsCmd(dbPath *string) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Show current points and recent history",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			total, err := st.SumDailyTotal(ctx)
			if err != nil {
				return err
			}
			headerColor.Printf("Total points: %.0f\n\n", total)

			d, _, err := effectiveDate(ctx, st)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Date", "Earned", "Penalty", "Total", "Completion"})
			table.SetBorder(false)
			for i := days - 1; i >= 0; i-- {
				day := d.AddDays(-i)
				ledger, err := st.GetDayLedger(ctx, day)
				if err != nil {
					return err
				}
				if ledger == nil {
					continue
				}
				table.Append([]string{
					day.String(),
					fmt.Sprintf("%.0f", ledger.PointsEarned),
					fmt.Sprintf("%.0f", ledger.PointsPenalty),
					fmt.Sprintf("%.0f", ledger.DailyTotal),
					fmt.Sprintf("%.0f%%", ledger.CompletionRate*100),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "how many days of history to show")
	return cmd
}
