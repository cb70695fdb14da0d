/*
main.go - dayctl: offline operator CLI for the day-lifecycle engine

PURPOSE:
  A local, zero-HTTP companion to the server: opens the same SQLite
  database directly and drives WorkTracker/Scoring/Planner straight
  from the command line. For a single-user system, a CLI that talks
  to the database is a legitimate peer of the HTTP API, not a wrapper
  around it — it works the same whether or not the server is running.

COMMANDS:
  dayctl today              today's agenda (tasks + habits) as a table
  dayctl start <id>         start an item
  dayctl stop               stop the active item
  dayctl complete [id]      complete an item (or the active one)
  dayctl roll [--mood=N]    run the daily roll
  dayctl points             current cumulative points
  dayctl status             settings + idempotence token snapshot

SEE ALSO:
  - commands/*.go: command implementations
  - api/handlers.go: the HTTP-facing equivalent of these operations
*/
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp/dayline/cmd/dayctl/commands"
)

var (
	dbPath  string
	noColor bool

	errorColor = color.New(color.FgRed, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "dayctl",
	Short: "dayctl - offline operator CLI for the day-lifecycle engine",
	Long: `dayctl drives the day-lifecycle engine (tasks, habits, points,
the daily roll) directly against its SQLite database, with no HTTP
server required.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "dayline.db", "SQLite database path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cobra.OnInitialize(func() {
		if noColor || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		}
	})

	rootCmd.AddCommand(commands.TodayCmd(&dbPath))
	rootCmd.AddCommand(commands.StartCmd(&dbPath))
	rootCmd.AddCommand(commands.StopCmd(&dbPath))
	rootCmd.AddCommand(commands.CompleteCmd(&dbPath))
	rootCmd.AddCommand(commands.RollCmd(&dbPath))
	rootCmd.AddCommand(commands.PointsCmd(&dbPath))
	rootCmd.AddCommand(commands.StatusCmd(&dbPath))

	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Println()
		os.Exit(1)
	}
}
