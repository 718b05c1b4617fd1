package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/mschirtzinger/lanform/internal/form"
	"github.com/mschirtzinger/lanform/internal/session"
	"github.com/mschirtzinger/lanform/internal/store"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:     "submit",
	GroupID: "form",
	Short:   "Submit one record non-interactively",
	Long: `Append one record to the shared file, then try to relay it.

The record is always written locally first. If the aggregator is unreachable
the record stays in the shared file and is not retried later.

Exit status is 1 only when the record was not written.

Example:
  lanform submit -f shared.json --name Ada --email ada@example.com \
      --phone 555-0100 --address "1 Main St" --gender Female --age 36`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fatalf("--file is required")
		}

		var in form.Input
		in.Name, _ = cmd.Flags().GetString("name")
		in.Email, _ = cmd.Flags().GetString("email")
		in.Phone, _ = cmd.Flags().GetString("phone")
		in.Address, _ = cmd.Flags().GetString("address")
		in.Gender, _ = cmd.Flags().GetString("gender")
		in.Age, _ = cmd.Flags().GetString("age")

		rec, err := in.Record()
		if err != nil {
			fatalf("%v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		sensor := startConnectivity(ctx)
		s, cleanup := newSession(sessionOptions{picker: picker(file), sensor: sensor})
		defer cleanup()

		if !printPick(s.Pick(ctx)) {
			return
		}

		res, err := s.Submit(ctx, rec)
		if err != nil {
			if errors.Is(err, store.ErrWriteFailure) {
				fatalf("%s: %v", session.StatusWriteFailure, err)
			}
			fatalf("%v", err)
		}
		printSubmit(res)
	},
}

func init() {
	f := submitCmd.Flags()
	f.StringP("file", "f", "", "shared JSON file")
	f.String("name", "", "name")
	f.String("email", "", "email address")
	f.String("phone", "", "phone number")
	f.String("address", "", "postal address")
	f.String("gender", "", "Male, Female or Other")
	f.String("age", "", "age in years")
	rootCmd.AddCommand(submitCmd)
}
