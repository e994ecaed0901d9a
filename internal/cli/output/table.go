package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

// holderWidth is the holder column width outside wide mode.
const holderWidth = 24

// TableFormatter formats data as an aligned table.
type TableFormatter struct {
	// Wide prints full holder names and unrounded amounts.
	Wide      bool
	NoHeaders bool
}

// Format formats data as a table.
// Supports: Table, []domain.View, domain.View, map[string]any.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	var table *Table
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		table = v
	case Table:
		table = &v
	case []domain.View:
		table = f.accountsTable(v)
	case domain.View:
		table = f.accountTable(v)
	case *domain.View:
		if v == nil {
			return nil
		}
		table = f.accountTable(*v)
	case map[string]any:
		table = mapTable(v)
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func (f *TableFormatter) accountsTable(views []domain.View) *Table {
	t := &Table{Headers: []string{"TYPE", "NUMBER", "HOLDER", "BALANCE", "RATE", "LIMIT"}}
	for _, v := range views {
		t.AddRow(
			string(v.Type),
			fmt.Sprintf("%d", v.Number),
			f.holder(v.HolderName),
			f.amount(v.Balance),
			f.optional(v.InterestRate, false),
			f.optional(v.OverdraftLimit, true),
		)
	}
	return t
}

func (f *TableFormatter) accountTable(v domain.View) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("accountType", string(v.Type))
	t.AddRow("accountNumber", fmt.Sprintf("%d", v.Number))
	t.AddRow("holderName", v.HolderName)
	t.AddRow("balance", f.amount(v.Balance))
	if v.InterestRate != nil {
		t.AddRow("interestRate", v.InterestRate.String())
	}
	if v.OverdraftLimit != nil {
		t.AddRow("overdraftLimit", f.amount(*v.OverdraftLimit))
	}
	return t
}

func (f *TableFormatter) holder(name string) string {
	if f.Wide || len(name) <= holderWidth {
		return name
	}
	return name[:holderWidth-3] + "..."
}

func (f *TableFormatter) amount(d decimal.Decimal) string {
	if f.Wide {
		return d.String()
	}
	return d.StringFixed(2)
}

func (f *TableFormatter) optional(d *decimal.Decimal, money bool) string {
	switch {
	case d == nil:
		return "-"
	case money:
		return f.amount(*d)
	default:
		return d.String()
	}
}

// mapTable renders a map as KEY/VALUE rows sorted by key.
func mapTable(m map[string]any) *Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range keys {
		t.AddRow(k, formatValue(m[k]))
	}
	return t
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case []domain.View:
		return fmt.Sprintf("[%d accounts]", len(x))
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
