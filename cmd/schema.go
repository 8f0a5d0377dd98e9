package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clearline-kyc/sow-cli/internal/model"
	"github.com/clearline-kyc/sow-cli/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [type]",
	Short: "List the recognized source types and their required fields",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := schema.Load()
		if err != nil {
			return err
		}

		types := reg.SourceTypes()
		if len(args) == 1 {
			types = []model.SourceType{model.SourceType(args[0])}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, st := range types {
			fields, err := reg.RequiredFields(st)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%d fields\n", st, reg.DisplayName(st), len(fields))
			for _, f := range fields {
				fmt.Fprintf(w, "\t%s\t%s\n", f.Name, f.Description)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
