package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store"
)

// TodayCmd prints today's agenda: is_today tasks plus habits due today.
func TodayCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's agenda",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			d, _, err := effectiveDate(ctx, st)
			if err != nil {
				return err
			}

			isToday := true
			items, err := st.ListItems(ctx, store.ItemFilter{IsToday: &isToday})
			if err != nil {
				return err
			}
			habits, err := st.TodayHabits(ctx, d)
			if err != nil {
				return err
			}

			headerColor.Printf("Agenda for %s\n", d.String())
			if len(items) == 0 && len(habits) == 0 {
				warningColor.Println("Nothing planned. Run `dayctl roll` to plan the day.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Kind", "Description", "Status", "Energy", "Priority"})
			table.SetBorder(false)
			table.SetRowSeparator("-")

			for _, it := range items {
				table.Append(row(it, "task"))
			}
			for _, it := range habits {
				table.Append(row(it, "habit"))
			}
			table.Render()
			return nil
		},
	}
}

func row(it *core.WorkItem, kind string) []string {
	return []string{
		it.ID[:8],
		kind,
		it.Description,
		string(it.Status),
		fmt.Sprintf("%d", it.Energy),
		fmt.Sprintf("%d", it.Priority),
	}
}
