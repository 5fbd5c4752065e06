package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/vtanalysis/internal/analysis"
	"github.com/rewired-gh/vtanalysis/internal/logger"
	"github.com/rewired-gh/vtanalysis/internal/models"
)

type formatOptions struct {
	pretty bool
	filter string
}

func (o *formatOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().StringVar(&o.filter, "filter", "", "Only keep hits whose searchable fields contain this text")
}

// emit formats raw and writes the result to w.
func (o *formatOptions) emit(w io.Writer, raw *models.RawAnalysis) error {
	if !analysis.CheckSupportedWorkflow(raw.Workflow) {
		logger.Warn("Workflow %q of analysis %s is not supported for viewing", raw.Workflow, raw.ID)
	}

	formatted, err := analysis.Format(raw)
	if err != nil {
		return err
	}
	logger.Debug("Formatted analysis %s as %T", raw.ID, formatted)

	return writeJSON(w, analysis.FilterHits(formatted, o.filter), o.pretty)
}

func newFormatCmd(a *app) *cobra.Command {
	opts := &formatOptions{}

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format a raw analysis document read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			var raw models.RawAnalysis
			if err := json.NewDecoder(in).Decode(&raw); err != nil {
				return fmt.Errorf("failed to decode analysis: %w", err)
			}
			if err := raw.Validate(); err != nil {
				return fmt.Errorf("invalid analysis: %w", err)
			}

			return opts.emit(cmd.OutOrStdout(), &raw)
		},
	}
	opts.bind(cmd)
	return cmd
}
