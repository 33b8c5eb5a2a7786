package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/extractor"
)

func newCriteriaCommand() *cobra.Command {
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Show the active evaluation criteria set",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := criteria.Default()
			if path := os.Getenv("CRITERIA_PATH"); path != "" {
				loaded, err := criteria.Load(path)
				if err != nil {
					return err
				}
				set = loaded
			}

			fmt.Fprintf(cmd.OutOrStdout(), "criteria set: %s (max %.0f points)\n", set.Name, set.MaxScore())

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Name", "Max", "Description"})
			for _, c := range set.Criteria {
				t.AppendRow(table.Row{c.ID, c.Name, c.MaxScore, c.Description})
			}
			t.Render()

			if len(set.Insights) > 0 {
				it := table.NewWriter()
				it.SetOutputMirror(cmd.OutOrStdout())
				it.AppendHeader(table.Row{"Insight", "Type", "Options"})
				for _, f := range set.Insights {
					opts := ""
					if len(f.Options) > 0 {
						opts = fmt.Sprint(f.Options)
					}
					it.AppendRow(table.Row{f.Key, string(f.Type), opts})
				}
				it.Render()
			}

			if showPrompt {
				preview, err := extractor.MarshalPromptPreview(set)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), preview)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPrompt, "prompt", false, "Also print the evaluation prompt sent to the model")
	return cmd
}
