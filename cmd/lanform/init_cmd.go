package main

import (
	"fmt"

	"github.com/mschirtzinger/lanform/internal/capability"
	"github.com/mschirtzinger/lanform/internal/ui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init <file>",
	GroupID: "setup",
	Short:   "Create an empty shared JSON file",
	Long: `Create a new shared file containing an empty JSON array.

Place the file somewhere every participant can reach, such as a network
share, and have everyone pick the same file. An existing file is never
overwritten.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := capability.CreateEmpty(args[0]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Created %s\n", ui.RenderPass("✓"), ui.RenderAccent(args[0]))
		fmt.Printf("   Pick it with: lanform run --file %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
