package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:     "show",
	GroupID: "form",
	Short:   "Print the records in the shared file",
	Long: `Print the shared file's records without modifying it.

The file is read with the same tolerant loader a session uses, so invalid
content prints as an empty list.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		if file == "" {
			fatalf("--file is required")
		}

		db, err := loadReadOnly(context.Background(), file)
		if err != nil {
			fatalf("%v", err)
		}

		if err := writeDatabase(os.Stdout, db, format); err != nil {
			fatalf("%v", err)
		}
	},
}

func writeDatabase(w io.Writer, db record.Database, format string) error {
	switch format {
	case "json", "":
		data, err := record.Encode(db)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlRecords(db)); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

type yamlRecord struct {
	Name    string  `yaml:"name"`
	Email   string  `yaml:"email"`
	Phone   string  `yaml:"phone"`
	Address string  `yaml:"address"`
	Gender  string  `yaml:"gender"`
	Age     float64 `yaml:"age"`
}

func yamlRecords(db record.Database) []yamlRecord {
	out := make([]yamlRecord, 0, len(db))
	for _, r := range db {
		out = append(out, yamlRecord{
			Name:    r.Name,
			Email:   r.Email,
			Phone:   r.Phone,
			Address: r.Address,
			Gender:  string(r.Gender),
			Age:     float64(r.Age),
		})
	}
	return out
}

func init() {
	showCmd.Flags().StringP("file", "f", "", "shared JSON file")
	showCmd.Flags().String("format", "json", "output format: json or yaml")
	rootCmd.AddCommand(showCmd)
}
