package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/vtanalysis/internal/analysis"
	"github.com/rewired-gh/vtanalysis/internal/models"
)

// parseRange parses "start-end".
func parseRange(s string) (models.Range, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return models.Range{}, fmt.Errorf("invalid range %q: expected start-end", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return models.Range{}, fmt.Errorf("invalid range start %q: %w", start, err)
	}
	b, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return models.Range{}, fmt.Errorf("invalid range end %q: %w", end, err)
	}
	if b < a {
		return models.Range{}, fmt.Errorf("invalid range %q: end before start", s)
	}
	return models.Range{a, b}, nil
}

// parseRanges parses a comma separated list of ranges.
func parseRanges(s string) ([]models.Range, error) {
	var ranges []models.Range
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func newRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Derive and combine sequence regions",
		// Region commands need no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	cmd.AddCommand(newTrustworthyCmd(), newCombineCmd())
	return cmd
}

func newTrustworthyCmd() *cobra.Command {
	var (
		length int
		ranges []string
	)

	cmd := &cobra.Command{
		Use:   "trustworthy",
		Short: "Print the trustworthy regions left between untrustworthy ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if length < 1 {
				return fmt.Errorf("--length must be at least 1")
			}

			var untrustworthy []models.Range
			for _, s := range ranges {
				parsed, err := parseRanges(s)
				if err != nil {
					return err
				}
				untrustworthy = append(untrustworthy, parsed...)
			}

			return writeJSON(cmd.OutOrStdout(), analysis.DeriveTrustworthyRegions(length, untrustworthy), false)
		},
	}
	cmd.Flags().IntVar(&length, "length", 0, "Sequence length")
	cmd.Flags().StringArrayVar(&ranges, "range", nil, "Untrustworthy range start-end, in ascending order (repeatable)")
	return cmd
}

func newCombineCmd() *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Union untrustworthy regions reported by several sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			lists := make([][]models.Range, 0, len(sources))
			for _, s := range sources {
				parsed, err := parseRanges(s)
				if err != nil {
					return err
				}
				lists = append(lists, parsed)
			}

			return writeJSON(cmd.OutOrStdout(), analysis.CombineUntrustworthyRegions(lists), false)
		},
	}
	cmd.Flags().StringArrayVar(&sources, "source", nil, "Comma separated ranges from one source, eg. 5-10,20-25 (repeatable)")
	return cmd
}
