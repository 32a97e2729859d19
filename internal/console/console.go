// Package console renders list views and command results for the terminal.
package console

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/listview"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// cells longer than this are cut with an ellipsis
const maxCellWidth = 40

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", internal.NewValidationFieldError("output", fmt.Sprintf("unknown output format %q (table, json)", s), internal.ErrCodeValidationFailed)
}

type styles struct {
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
	current lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	title   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		border:  r.NewStyle().Foreground(lipgloss.Color("240")),
		current: r.NewStyle().Bold(true).Reverse(true),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")),
		title:   r.NewStyle().Bold(true).Underline(true),
	}
}

// Printer writes command output in the chosen format.
type Printer struct {
	out    io.Writer
	format Format
	styles styles
}

// NewPrinter writes to out. Colour follows the terminal capabilities of out.
func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{
		out:    out,
		format: format,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

func (p *Printer) Format() Format {
	return p.format
}

// View prints one page of a list view: the table, the range line and the
// pager.
func (p *Printer) View(e catalog.Entity, v listview.View) error {
	if p.format == FormatJSON {
		return p.JSON(v)
	}

	fmt.Fprintln(p.out, p.styles.title.Render(e.Label))
	if v.State == listview.StateFailed {
		fmt.Fprintln(p.out, p.styles.failure.Render(internal.ToastMessage(v.Err)))
		fmt.Fprintln(p.out, p.styles.muted.Render("No records to show. Run the command again to retry."))
		return nil
	}
	if len(v.Items) == 0 {
		fmt.Fprintln(p.out, p.styles.muted.Render("No records match the current search and filters."))
		return nil
	}

	fmt.Fprintln(p.out, p.Table(columns(e, v.Items), v.Items))
	fmt.Fprintln(p.out, RangeLine(v))
	fmt.Fprintln(p.out, p.PagerLine(v.Pager))
	return nil
}

// Table renders records under the given columns.
func (p *Printer) Table(cols []string, records []catalog.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(cols))
		for i, col := range cols {
			if col == "id" {
				row[i] = r.ID()
			} else {
				row[i] = truncate(r.String(col), maxCellWidth)
			}
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.styles.border).
		Headers(cols...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.header
			}
			return p.styles.cell
		}).
		String()
}

// RangeLine is the "Showing X to Y of Z" summary under a table.
func RangeLine(v listview.View) string {
	line := fmt.Sprintf("Showing %d to %d of %d", v.RangeStart, v.RangeEnd, v.FilteredCount)
	if v.FilteredCount != v.TotalCount {
		line += fmt.Sprintf(" (filtered from %d)", v.TotalCount)
	}
	return line
}

// PagerLine renders the pager with the current page highlighted. Disabled
// arrows are dimmed.
func (p *Printer) PagerLine(pg listview.Pager) string {
	parts := make([]string, 0, len(pg.Items)+2)
	parts = append(parts, p.arrow("‹", pg.PrevDisabled))
	for _, item := range pg.Items {
		switch {
		case item.Ellipsis:
			parts = append(parts, p.styles.muted.Render("…"))
		case item.Current:
			parts = append(parts, p.styles.current.Render(" "+strconv.Itoa(item.Number)+" "))
		default:
			parts = append(parts, strconv.Itoa(item.Number))
		}
	}
	parts = append(parts, p.arrow("›", pg.NextDisabled))
	return strings.Join(parts, " ")
}

func (p *Printer) arrow(s string, disabled bool) string {
	if disabled {
		return p.styles.muted.Render(s)
	}
	return s
}

// Success prints a toast for a completed action.
func (p *Printer) Success(msg string) {
	if p.format == FormatJSON {
		_ = p.JSON(map[string]string{"message": msg})
		return
	}
	fmt.Fprintln(p.out, p.styles.success.Render(msg))
}

// Failure prints err as the operator-facing toast.
func (p *Printer) Failure(err error) {
	fmt.Fprintln(p.out, p.styles.failure.Render(internal.ToastMessage(err)))
}

// KeyValues prints label/value pairs as a two-column table.
func (p *Printer) KeyValues(title string, pairs [][2]string) error {
	if p.format == FormatJSON {
		m := make(map[string]string, len(pairs))
		for _, kv := range pairs {
			m[kv[0]] = kv[1]
		}
		return p.JSON(m)
	}
	if title != "" {
		fmt.Fprintln(p.out, p.styles.title.Render(title))
	}
	rows := make([][]string, 0, len(pairs))
	for _, kv := range pairs {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	fmt.Fprintln(p.out, table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return p.styles.header
			}
			return p.styles.cell
		}).
		String())
	return nil
}

// Rows prints an arbitrary table; used for presets and summaries.
func (p *Printer) Rows(headers []string, rows [][]string, data any) error {
	if p.format == FormatJSON {
		return p.JSON(data)
	}
	fmt.Fprintln(p.out, table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.header
			}
			return p.styles.cell
		}).
		String())
	return nil
}

func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// columns picks the entity's configured columns, or the first record's keys
// when none are configured.
func columns(e catalog.Entity, items []catalog.Record) []string {
	if len(e.Columns) > 0 {
		return e.Columns
	}
	var cols []string
	for k := range items[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
