package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warp/dayline/planner"
)

// RollCmd runs the daily roll for the current effective date.
func RollCmd(dbPath *string) *cobra.Command {
	var mood int
	var hasMood bool

	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Plan today's agenda",
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

			var moodPtr *int
			if hasMood {
				moodPtr = &mood
			}

			pl := planner.New(st)
			if err := pl.Roll(ctx, d, moodPtr); err != nil {
				return err
			}
			successColor.Printf("rolled %s\n", d.String())
			return nil
		},
	}
	cmd.Flags().IntVar(&mood, "mood", 0, "energy ceiling in [0,5] for today's selection")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		hasMood = cmd.Flags().Changed("mood")
	}
	return cmd
}
