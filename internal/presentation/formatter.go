package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787")).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FECA57"))
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter creates a formatter that renders tables.
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{writer: writer}
}

// NewJSONFormatter creates a formatter that writes indented JSON.
func NewJSONFormatter(writer io.Writer) *Formatter {
	return &Formatter{writer: writer, json: true}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) table(headers []string, rows [][]string, failed func(row int) bool) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case failed != nil && failed(row):
				return failStyle
			default:
				return cellStyle
			}
		}).
		String()
}

// FormatReport writes a session summary, its failures and bindings.
func (f *Formatter) FormatReport(r ReportDTO) error {
	if f.json {
		return f.encode(r)
	}

	status := okStyle.Render("ok")
	if r.Failed > 0 {
		status = failStyle.UnsetPadding().Render("failed")
	}
	if _, err := fmt.Fprintf(f.writer, "session %s: %d/%d loaded in %dms (%s)\n",
		r.SessionID, r.Loaded, r.Total, r.DurationMs, status); err != nil {
		return err
	}

	if len(r.Failures) > 0 {
		rows := make([][]string, len(r.Failures))
		for i, fl := range r.Failures {
			rows[i] = []string{fl.Name, fl.Locator, fl.Error}
		}
		if _, err := fmt.Fprintln(f.writer, f.table([]string{"NAME", "LOCATOR", "ERROR"}, rows, func(int) bool { return true })); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(f.writer, "loot: %v\n", r.Loot); err != nil {
		return err
	}
	if len(r.Missing) > 0 {
		if _, err := fmt.Fprintln(f.writer, warnStyle.Render(fmt.Sprintf("missing loot models: %v", r.Missing))); err != nil {
			return err
		}
	}

	if len(r.Bindings) > 0 {
		rows := make([][]string, len(r.Bindings))
		for i, b := range r.Bindings {
			rows[i] = []string{b.Model, b.Texture, strconv.FormatBool(b.Found), strconv.Itoa(b.Surfaces)}
		}
		notFound := func(row int) bool { return !r.Bindings[row].Found }
		if _, err := fmt.Fprintln(f.writer, f.table([]string{"MODEL", "TEXTURE", "FOUND", "SURFACES"}, rows, notFound)); err != nil {
			return err
		}
	}
	return nil
}

// FormatCatalogue writes catalogue entries in declaration order.
func (f *Formatter) FormatCatalogue(entries []CatalogueEntryDTO) error {
	if f.json {
		return f.encode(entries)
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		loot := ""
		if e.Loot {
			loot = "yes"
		}
		rows[i] = []string{e.Name, e.Kind, e.Variant, e.Locator, loot, e.ColorSpace}
	}
	_, err := fmt.Fprintln(f.writer, f.table([]string{"NAME", "KIND", "VARIANT", "LOCATOR", "LOOT", "COLOR SPACE"}, rows, nil))
	return err
}

// FormatHistory writes journal entries, most recent first.
func (f *Formatter) FormatHistory(entries []HistoryEntryDTO) error {
	if f.json {
		return f.encode(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(f.writer, "no sessions recorded")
		return err
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.SessionID,
			e.FinishedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(e.Total),
			strconv.Itoa(e.Loaded),
			strconv.Itoa(e.Failed),
			strconv.FormatInt(e.DurationMs, 10) + "ms",
		}
	}
	failed := func(row int) bool { return entries[row].Failed > 0 }
	_, err := fmt.Fprintln(f.writer, f.table([]string{"SESSION", "FINISHED", "TOTAL", "LOADED", "FAILED", "DURATION"}, rows, failed))
	return err
}

// FormatFailures writes the recorded failures of one session.
func (f *Formatter) FormatFailures(failures []FailureDTO) error {
	if f.json {
		return f.encode(failures)
	}
	if len(failures) == 0 {
		_, err := fmt.Fprintln(f.writer, "no failures")
		return err
	}
	rows := make([][]string, len(failures))
	for i, fl := range failures {
		rows[i] = []string{fl.Name, fl.Locator, fl.Error}
	}
	_, err := fmt.Fprintln(f.writer, f.table([]string{"NAME", "LOCATOR", "ERROR"}, rows, nil))
	return err
}
