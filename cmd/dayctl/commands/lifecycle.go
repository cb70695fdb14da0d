package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warp/dayline/worktracker"
)

// StartCmd activates the given item id.
func StartCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start working on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			tracker := worktracker.New(st, nil)
			if err := tracker.Start(context.Background(), args[0]); err != nil {
				return err
			}
			successColor.Println("started")
			return nil
		},
	}
}

// StopCmd stops the unique active item, if any.
func StopCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active item",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			tracker := worktracker.New(st, nil)
			if err := tracker.Stop(context.Background()); err != nil {
				return err
			}
			successColor.Println("stopped")
			return nil
		},
	}
}

// CompleteCmd completes an item, or the active item when no id is given.
func CompleteCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete [id]",
		Short: "Complete an item (or the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			tracker := worktracker.New(st, nil)
			item, err := tracker.Complete(context.Background(), id)
			if err != nil {
				return err
			}
			successColor.Printf("completed: %s\n", item.Description)
			return nil
		},
	}
}
