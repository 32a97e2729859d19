package cmd

import (
	"github.com/spf13/cobra"

	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/preset"
)

var clearData bool

type starterPreset struct {
	entity  string
	request preset.SavePresetRequest
}

var starterPresets = []starterPreset{
	{catalog.Employees, preset.SavePresetRequest{Name: "active", Filters: map[string]string{"status": "active"}}},
	{catalog.Packages, preset.SavePresetRequest{Name: "active", Filters: map[string]string{"status": "active"}}},
	{catalog.Advertisements, preset.SavePresetRequest{Name: "active", Filters: map[string]string{"status": "active"}}},
	{catalog.TravelPlans, preset.SavePresetRequest{Name: "under-50k", Filters: map[string]string{"budget": "0-50000"}}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the preset database with starter presets",
	Long:  `Seed the preset database with a few commonly used presets. Existing presets with the same name are kept unless --clear is given.`,
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

		svc, err := deps.Presets(ctx)
		if err != nil {
			return err
		}

		var rows [][]string
		for _, sp := range starterPresets {
			if !clearData {
				if _, err := svc.Get(sp.entity, sp.request.Name); err == nil {
					rows = append(rows, []string{sp.entity, sp.request.Name, "kept"})
					continue
				}
			}
			if _, err := svc.Save(sp.entity, sp.request, "seed"); err != nil {
				return err
			}
			deps.Logger.Info("seeded preset", "entity", sp.entity, "name", sp.request.Name)
			rows = append(rows, []string{sp.entity, sp.request.Name, "saved"})
		}
		return p.Rows([]string{"entity", "preset", "result"}, rows, rows)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "replace starter presets that already exist")
}
