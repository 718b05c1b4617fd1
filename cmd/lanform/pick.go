package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var pickCmd = &cobra.Command{
	Use:     "pick",
	GroupID: "form",
	Short:   "Select the shared JSON file and show what it holds",
	Long: `Select the shared file, record that a file was granted, and load it.

Without --file an interactive picker limited to .json files is shown.
Content that is not a valid list of records loads as empty; the next
submission will replace it.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		s, cleanup := newSession(sessionOptions{picker: picker(file)})
		defer cleanup()

		printPick(s.Pick(ctx))
	},
}

func init() {
	pickCmd.Flags().StringP("file", "f", "", "shared JSON file")
	rootCmd.AddCommand(pickCmd)
}
