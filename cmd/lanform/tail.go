package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mschirtzinger/lanform/internal/ui"
	"github.com/mschirtzinger/lanform/internal/watch"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:     "tail",
	GroupID: "form",
	Short:   "Follow the shared file and report each change",
	Long: `Watch the shared file and print the record count whenever it changes,
including writes made by other participants. Read-only.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fatalf("--file is required")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		fw, err := watch.NewFileWatcher(file, 0)
		if err != nil {
			fatalf("%v", err)
		}
		if err := fw.Start(); err != nil {
			fatalf("%v", err)
		}
		defer fw.Stop()

		report := func() {
			db, err := loadReadOnly(ctx, fw.Path())
			if err != nil {
				fmt.Printf("%s %s %v\n", ui.RenderMuted(time.Now().Format(time.TimeOnly)), ui.RenderWarn("⚠"), err)
				return
			}
			last := ""
			if len(db) > 0 {
				last = " last: " + db[len(db)-1].Name
			}
			fmt.Printf("%s %d records%s\n", ui.RenderMuted(time.Now().Format(time.TimeOnly)), len(db), last)
		}

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("👀"), fw.Path())
		report()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events():
				if !ok {
					return
				}
				if ev.Op == watch.OpRemoved {
					fmt.Printf("%s %s %s\n", ui.RenderMuted(time.Now().Format(time.TimeOnly)), ui.RenderWarn("⚠"), "file removed")
					continue
				}
				report()
			case err, ok := <-fw.Errors():
				if !ok {
					return
				}
				sink.Logger("watch").Printf("Watcher error: %v", err)
			}
		}
	},
}

func init() {
	tailCmd.Flags().StringP("file", "f", "", "shared JSON file")
	rootCmd.AddCommand(tailCmd)
}
