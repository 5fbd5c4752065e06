package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/vtanalysis/internal/analysis"
	"github.com/rewired-gh/vtanalysis/internal/config"
	"github.com/rewired-gh/vtanalysis/internal/virtool"
)

func newClient(cfg *config.Config) *virtool.Client {
	return virtool.NewClient(cfg.Virtool.APIBaseURL, cfg.Virtool.Timeout, virtool.ClientConfig{
		Token:          cfg.Virtool.Token,
		MaxRetries:     cfg.Virtool.MaxRetries,
		RetryDelayBase: cfg.Virtool.RetryDelayBase,
	})
}

func newFetchCmd(a *app) *cobra.Command {
	opts := &formatOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <analysis-id>",
		Short: "Fetch an analysis from the API and format it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := newClient(a.cfg).FetchAnalysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), raw)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <sample-id>",
		Short: "List the analyses of a sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyses, err := newClient(a.cfg).ListSampleAnalyses(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWORKFLOW\tREADY\tSUPPORTED\tCREATED")
			for _, an := range analyses {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\n",
					an.ID, an.Workflow, an.Ready, analysis.CheckSupportedWorkflow(an.Workflow),
					an.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}
