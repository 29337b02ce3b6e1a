package commands

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kailas-cloud/transparencia/internal/domain/record"
	sdk "github.com/kailas-cloud/transparencia/pkg/sdk"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fromRecord maps an in-process result to the wire shape printed by every command.
func fromRecord(r record.CollectionResult) *sdk.Result {
	out := &sdk.Result{
		Name:     r.Name,
		Document: r.Document,
		Location: r.Location,
		Benefits: make([]sdk.Benefit, len(r.Benefits)),
	}
	for i, c := range r.Benefits {
		rows := make([]sdk.Row, len(c.Rows))
		for j, row := range c.Rows {
			details := make([]map[string]string, len(row.Details))
			for k, d := range row.Details {
				details[k] = d
			}
			rows[j] = sdk.Row{AmountReceived: row.AmountReceived, Details: details}
		}
		out.Benefits[i] = sdk.Benefit{Name: c.Name, Rows: rows}
	}
	return out
}

func render(w io.Writer, format string, r *sdk.Result) error {
	if format == outputJSON {
		return writeJSON(w, r)
	}

	person := newTable(w)
	person.AppendHeader(table.Row{"Nome", "CPF", "Localidade"})
	person.AppendRow(table.Row{r.Name, r.Document, r.Location})
	person.Render()

	if len(r.Benefits) == 0 {
		return nil
	}

	rows := newTable(w)
	rows.AppendHeader(table.Row{"Benefício", "Valor recebido", "Detalhes"})
	for _, b := range r.Benefits {
		for _, row := range b.Rows {
			rows.AppendRow(table.Row{b.Name, row.AmountReceived, formatDetails(row.Details)})
		}
	}
	rows.Render()
	return nil
}

// formatDetails prints each detail line as "label: value" pairs in label order.
func formatDetails(details []map[string]string) string {
	lines := make([]string, 0, len(details))
	for _, d := range details {
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + ": " + d[k]
		}
		lines = append(lines, strings.Join(pairs, ", "))
	}
	return strings.Join(lines, "\n")
}

func renderHealth(w io.Writer, format string, s sdk.HealthStatus) error {
	if format == outputJSON {
		return writeJSON(w, s)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Component", "Status"})
	t.AppendRow(table.Row{"service", s.Status})
	keys := make([]string, 0, len(s.Checks))
	for k := range s.Checks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{k, s.Checks[k]})
	}
	t.Render()
	return nil
}
