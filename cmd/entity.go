package cmd

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/console"
	"github.com/viakashmir/admin-console/internal/core/events"
	"github.com/viakashmir/admin-console/internal/form"
	"github.com/viakashmir/admin-console/internal/listview"
)

const defaultDeleteWorkers = 4

func newEntityCmd(name, label string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("List and edit %s", strings.ToLower(label)),
	}
	cmd.AddCommand(
		newListCmd(name),
		newShowCmd(name),
		newCreateCmd(name),
		newUpdateCmd(name),
		newDeleteCmd(name),
	)
	return cmd
}

func newListCmd(entity string) *cobra.Command {
	var (
		search     string
		filters    []string
		page       int
		presetName string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of records after search and filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := printer(cmd)
			if err != nil {
				return err
			}
			parsed, err := parsePairs("filter", filters)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			deps, err := initializeDependencies(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			e, err := deps.Entity(entity)
			if err != nil {
				return err
			}
			view, err := loadView(ctx, deps, e, presetName, search, cmd.Flags().Changed("search"), parsed, page)
			if err != nil {
				return err
			}
			if err := p.View(e, view); err != nil {
				return err
			}
			if view.Err != nil && p.Format() == console.FormatTable {
				// already shown above the empty table
				return errReported
			}
			return view.Err
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search over the entity's search fields")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as name=value; repeatable")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVar(&presetName, "preset", "", "apply a saved preset before --search and --filter")
	return cmd
}

// loadView drives a pipeline the way the list screen does: load, then
// narrow, then page. Explicit flags override a preset's values.
func loadView(ctx context.Context, deps *Dependencies, e catalog.Entity, presetName, search string, searchSet bool, filters map[string]string, page int) (listview.View, error) {
	pipeline := listview.NewPipeline(e, deps.Client, deps.Bus, deps.Collector, deps.Logger)
	defer pipeline.Close()

	// a failed load still yields a view carrying the error
	_ = pipeline.Load(ctx)

	if presetName != "" {
		presets, err := deps.Presets(ctx)
		if err != nil {
			return listview.View{}, err
		}
		if _, err := presets.Apply(e.Name, presetName, pipeline); err != nil {
			return listview.View{}, err
		}
	}
	if searchSet {
		pipeline.SetSearch(search)
	}
	for _, name := range sortedKeys(filters) {
		if err := pipeline.SetFilter(name, filters[name]); err != nil {
			return listview.View{}, err
		}
	}
	if page < 1 {
		return listview.View{}, internal.NewValidationFieldError("page", "page must be at least 1", internal.ErrCodeInvalidPage)
	}
	pipeline.GoTo(page)
	return pipeline.View(), nil
}

func newShowCmd(entity string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single record",
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

			e, err := deps.Entity(entity)
			if err != nil {
				return err
			}
			rec, err := deps.Client.Get(ctx, e, args[0])
			if err != nil {
				return err
			}
			if p.Format() == console.FormatJSON {
				return p.JSON(rec)
			}
			return p.KeyValues(e.Label, recordPairs(rec))
		},
	}
}

func newCreateCmd(entity string) *cobra.Command {
	var sets, files []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from --set and --file values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWrite(cmd, entity, "", sets, files)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as name=value; repeatable")
	cmd.Flags().StringArrayVar(&files, "file", nil, "file upload as field=path; repeatable")
	return cmd
}

func newUpdateCmd(entity string) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record; fields not given keep their current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, entity, args[0], sets, nil)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as name=value; repeatable")
	return cmd
}

func runWrite(cmd *cobra.Command, entity, id string, sets, files []string) error {
	p, err := printer(cmd)
	if err != nil {
		return err
	}
	values, err := parsePairs("set", sets)
	if err != nil {
		return err
	}
	uploads, err := parsePairs("file", files)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	e, err := deps.Entity(entity)
	if err != nil {
		return err
	}

	controller := form.NewController(e, deps.Client, deps.Bus, deps.Logger)
	if id == "" {
		controller.OpenNew()
	} else {
		current, err := findRecord(ctx, deps, e, id)
		if err != nil {
			return err
		}
		controller.Open(current)
	}

	for _, field := range sortedKeys(values) {
		if err := controller.SetField(field, values[field]); err != nil {
			return err
		}
	}
	for _, field := range sortedKeys(uploads) {
		content, name, mimeType, err := readUpload(uploads[field])
		if err != nil {
			return err
		}
		if err := controller.AttachFile(field, name, content, mimeType); err != nil {
			return err
		}
	}

	rec, err := controller.Submit(ctx)
	if err != nil {
		return err
	}
	snap := controller.Snapshot()
	if p.Format() == console.FormatJSON {
		return p.JSON(map[string]any{"message": snap.Message, "record": rec})
	}
	p.Success(snap.Message)
	return nil
}

// findRecord looks the record up in the list, as the edit modal is filled
// from the row the operator clicked.
func findRecord(ctx context.Context, deps *Dependencies, e catalog.Entity, id string) (catalog.Record, error) {
	records, err := deps.Client.List(ctx, e)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, internal.NewNotFoundError(fmt.Sprintf("%s %q not found", e.Label, id), internal.ErrCodeRecordNotFound)
}

func readUpload(path string) ([]byte, string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", internal.NewValidationFieldError("file", fmt.Sprintf("cannot read %s: %v", path, err), internal.ErrCodeValidationFailed)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}
	return content, filepath.Base(path), mimeType, nil
}

func newDeleteCmd(entity string) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete one or more records",
		Args:  cobra.MinimumNArgs(1),
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

			e, err := deps.Entity(entity)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				controller := form.NewController(e, deps.Client, deps.Bus, deps.Logger)
				if err := controller.Delete(ctx, args[0]); err != nil {
					return err
				}
				p.Success(controller.Snapshot().Message)
				return nil
			}
			return deleteMany(ctx, p, deps, e, args, workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", defaultDeleteWorkers, "concurrent deletes when several ids are given")
	return cmd
}

func deleteMany(ctx context.Context, p *console.Printer, deps *Dependencies, e catalog.Entity, ids []string, workers int) error {
	if e.ReadOnly {
		return internal.NewForbiddenError(fmt.Sprintf("%s are read-only", e.Label), internal.ErrCodeInsufficientScope)
	}
	results := deps.Client.DeleteMany(ctx, e, ids, workers)

	type outcome struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	var (
		rows     [][]string
		outcomes []outcome
		failed   int
	)
	for _, r := range results {
		status := "deleted"
		if r.Err != nil {
			status = internal.ToastMessage(r.Err)
			failed++
		} else if err := deps.Bus.PublishSync(ctx, events.NewEntityMutatedEvent(e.Name, events.OpDelete, r.ID)); err != nil {
			deps.Logger.Warn("delete announcement failed", "id", r.ID, "error", err)
		}
		rows = append(rows, []string{r.ID, status})
		outcomes = append(outcomes, outcome{ID: r.ID, Status: status})
	}
	if err := p.Rows([]string{"id", "result"}, rows, outcomes); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(ids))
	}
	return nil
}

// parsePairs reads repeated name=value flags. A later value for the same
// name wins.
func parsePairs(flag string, raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, internal.NewValidationFieldError(flag, fmt.Sprintf("--%s expects name=value, got %q", flag, pair), internal.ErrCodeValidationFailed)
		}
		out[name] = value
	}
	return out, nil
}

func recordPairs(rec catalog.Record) [][2]string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, rec.String(k)})
	}
	return pairs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
