package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusCmd prints the Settings singleton's schedule knobs and the
// persistent idempotence tokens (last_roll_date, last_penalty_date,
// last_backup_date) the Scheduler drives off of.
func StatusCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduling status and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			settings, err := st.GetSettings(ctx)
			if err != nil {
				return err
			}
			d, _, err := effectiveDate(ctx, st)
			if err != nil {
				return err
			}

			headerColor.Println("Day boundary")
			fmt.Printf("  effective date:        %s\n", d.String())
			fmt.Printf("  day_start_enabled:     %v\n", settings.DayStartEnabled)
			fmt.Printf("  day_start_time:        %s\n", settings.DayStartTime)

			headerColor.Println("\nIdempotence tokens")
			fmt.Printf("  last_roll_date:        %s\n", orNone(settings.LastRollDate.String()))
			fmt.Printf("  last_penalty_date:     %s\n", orNone(settings.LastPenaltyDate.String()))
			fmt.Printf("  last_backup_date:      %s\n", orNone(settings.LastBackupDate.String()))

			headerColor.Println("\nAutomation")
			fmt.Printf("  auto_penalties:        %v at %s\n", settings.AutoPenaltiesEnabled, settings.PenaltyTime)
			fmt.Printf("  auto_roll:             %v at %s\n", settings.AutoRollEnabled, settings.AutoRollTime)
			fmt.Printf("  auto_backup:           %v at %s (every %d day(s))\n",
				settings.AutoBackupEnabled, settings.BackupTime, settings.BackupIntervalDays)

			if settings.LastRollDate.Before(d) {
				warningColor.Println("\nToday has not been rolled yet — run `dayctl roll`.")
			}
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return dimColor.Sprint("(none)")
	}
	return s
}
