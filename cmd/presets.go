package cmd

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/viakashmir/admin-console/internal/console"
	"github.com/viakashmir/admin-console/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved search and filter presets",
}

var (
	presetSearch  string
	presetFilters []string
)

var savePresetCmd = &cobra.Command{
	Use:   "save <entity> <name>",
	Short: "Save or replace a preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := printer(cmd)
		if err != nil {
			return err
		}
		filters, err := parsePairs("filter", presetFilters)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		svc, err := deps.Presets(ctx)
		if err != nil {
			return err
		}
		saved, err := svc.Save(args[0], preset.SavePresetRequest{
			Name:    args[1],
			Search:  presetSearch,
			Filters: filters,
		}, localOperator())
		if err != nil {
			return err
		}
		if p.Format() == console.FormatJSON {
			return p.JSON(saved)
		}
		p.Success("Preset " + saved.Name + " saved for " + saved.Entity)
		return nil
	},
}

var listPresetsCmd = &cobra.Command{
	Use:   "list <entity>",
	Short: "List the presets saved for an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		svc, err := deps.Presets(ctx)
		if err != nil {
			return err
		}
		presets, err := svc.List(args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(presets))
		for _, pr := range presets {
			rows = append(rows, []string{pr.Name, pr.Search, formatFilters(pr.Filters), pr.CreatedBy, pr.UpdatedAt.Format(time.RFC3339)})
		}
		return p.Rows([]string{"name", "search", "filters", "created by", "updated"}, rows, preset.PresetsResponse{Presets: presets})
	},
}

var deletePresetCmd = &cobra.Command{
	Use:   "delete <entity> <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		svc, err := deps.Presets(ctx)
		if err != nil {
			return err
		}
		if err := svc.Delete(args[0], args[1]); err != nil {
			return err
		}
		p.Success("Preset " + args[1] + " deleted")
		return nil
	},
}

func formatFilters(filters map[string]string) string {
	parts := make([]string, 0, len(filters))
	for k, v := range filters {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// localOperator names the presets saved from this terminal.
func localOperator() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func init() {
	savePresetCmd.Flags().StringVarP(&presetSearch, "search", "s", "", "search term stored with the preset")
	savePresetCmd.Flags().StringArrayVarP(&presetFilters, "filter", "f", nil, "filter as name=value; repeatable")

	presetsCmd.AddCommand(savePresetCmd, listPresetsCmd, deletePresetCmd)
}
