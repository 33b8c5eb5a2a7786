package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"voice-qa-go/internal/actionable"
	"voice-qa-go/internal/aggregator"
	"voice-qa-go/internal/call"
	"voice-qa-go/internal/config"
	"voice-qa-go/internal/dataset"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/pipeline"
	"voice-qa-go/internal/scheduler"
)

func newRunCommand() *cobra.Command {
	var concurrency int
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run <roster.xlsx|roster.csv>",
		Short: "Process a roster of call recordings and print the batch result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()

			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}
			set, err := pipeline.LoadCriteria(cfg)
			if err != nil {
				return err
			}

			items, err := dataset.Load(args[0])
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}
			if len(items) == 0 {
				return fmt.Errorf("roster %s has no usable rows", args[0])
			}

			exec := pipeline.NewExecutor(cfg, set, log.Entry)
			sched := &scheduler.Scheduler{Exec: exec, Log: log.Entry}

			var onProgress scheduler.ProgressFunc
			if !quiet {
				onProgress = func(p scheduler.Progress) {
					fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s -> %s\n", p.Completed, p.Total, p.ItemID, p.Status)
				}
			}

			outcomes := sched.Run(cmd.Context(), items, cfg.Concurrency, onProgress)
			summary := aggregator.Aggregate(outcomes)

			renderOutcomes(cmd.OutOrStdout(), outcomes)
			renderSummary(cmd.OutOrStdout(), summary, set.CriterionCaps())
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "Concurrent calls per window (default from env)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-call progress lines")
	return cmd
}

func renderOutcomes(out io.Writer, outcomes call.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Call", "State", "Sentiment", "Score", "Error"})
	for _, o := range outcomes {
		sentiment, score := "-", "-"
		if o.Item != nil && o.Item.Sentiment != nil {
			sentiment = o.Item.Sentiment.Overall
		}
		if o.Item != nil && o.Item.Evaluation != nil {
			score = fmt.Sprintf("%d%%", o.Item.Evaluation.Percentage)
		}
		t.AppendRow(table.Row{o.ID, string(o.FinalState), sentiment, score, truncate(o.Error, 48)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Score", Align: text.AlignRight},
	})
	t.Render()
}

func renderSummary(out io.Writer, s aggregator.Summary, caps map[string]float64) {
	fmt.Fprintf(out, "\n%d calls: %d evaluated, %d transcribed only, %d failed; mean score %.0f%%\n",
		s.Total, s.Evaluated, s.TranscribedOnly, s.Failed, s.MeanPercentage)

	card := actionable.Generate(s, caps)
	fmt.Fprintf(out, "insight: %s\naction:  %s\nimpact:  %s\n", card.Insight, card.Action, card.Impact)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
