package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/listview"
)

var summaryLimit int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count records of every entity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := printer(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		summaries := listview.Summarize(ctx, deps.Registry.All(), deps.Client, summaryLimit)
		rows := make([][]string, 0, len(summaries))
		failed := 0
		for _, s := range summaries {
			total, breakdown := strconv.Itoa(s.Total), formatCounts(s.ByStatus)
			if s.Err != nil {
				failed++
				total, breakdown = "-", internal.ToastMessage(s.Err)
			}
			rows = append(rows, []string{s.Label, total, breakdown})
		}
		if err := p.Rows([]string{"entity", "records", "by status"}, rows, summaries); err != nil {
			return err
		}
		if failed == len(summaries) && failed > 0 {
			return fmt.Errorf("no entity could be loaded")
		}
		return nil
	},
}

func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for status, n := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", status, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func init() {
	summaryCmd.Flags().IntVar(&summaryLimit, "concurrency", 4, "entities loaded at the same time")
}
