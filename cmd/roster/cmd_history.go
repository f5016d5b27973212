package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/shift-roster/schedule"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print locked weeks",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	history := schedule.LoadHistory(cmd.Context(), store, logger)
	w := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintln(w, "No locked weeks.")
		return nil
	}

	for i, key := range history.Keys() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Week %s\n", key)
		printRoster(w, history[key], nil)
	}
	return nil
}
