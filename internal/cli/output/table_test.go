package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return buf.String()
}

func TestTableFormatter_Accounts(t *testing.T) {
	out := render(t, &TableFormatter{}, []domain.View{savingsView(), checkingView()})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}

	if fields := strings.Fields(lines[0]); strings.Join(fields, " ") != "TYPE NUMBER HOLDER BALANCE RATE LIMIT" {
		t.Errorf("header = %q", lines[0])
	}
	if got := strings.Join(strings.Fields(lines[1]), " "); got != "SAVINGS 101 Alice 1000.50 0.02 -" {
		t.Errorf("row 1 = %q", got)
	}
	if got := strings.Join(strings.Fields(lines[2]), " "); got != "CHECKING 102 Bob -150.00 - 200.00" {
		t.Errorf("row 2 = %q", got)
	}
}

func TestTableFormatter_Wide(t *testing.T) {
	long := savingsView()
	long.HolderName = strings.Repeat("x", 40)

	narrow := render(t, &TableFormatter{}, []domain.View{long})
	if strings.Contains(narrow, long.HolderName) {
		t.Error("narrow table should truncate long holder names")
	}
	if !strings.Contains(narrow, "...") {
		t.Error("truncated holder should end with ...")
	}
	if !strings.Contains(narrow, "1000.50") {
		t.Error("narrow table should round amounts to cents")
	}

	wide := render(t, &TableFormatter{Wide: true}, []domain.View{long})
	if !strings.Contains(wide, long.HolderName) {
		t.Error("wide table should print the full holder name")
	}
	if !strings.Contains(wide, "1000.5 ") {
		t.Errorf("wide table should print the exact balance:\n%s", wide)
	}
}

func TestTableFormatter_EmptyAccounts(t *testing.T) {
	out := render(t, &TableFormatter{}, []domain.View{})
	if !strings.HasPrefix(out, "TYPE") || strings.Count(out, "\n") != 1 {
		t.Errorf("empty listing should print only the header, got %q", out)
	}
}

func TestTableFormatter_SingleAccount(t *testing.T) {
	v := checkingView()
	for name, data := range map[string]any{"value": v, "pointer": &v} {
		t.Run(name, func(t *testing.T) {
			out := render(t, &TableFormatter{}, data)
			for _, want := range []string{"FIELD", "accountType", "CHECKING", "overdraftLimit", "200.00"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			if strings.Contains(out, "interestRate") {
				t.Errorf("checking account should not list interestRate:\n%s", out)
			}
		})
	}
}

func TestTableFormatter_NilValues(t *testing.T) {
	var nilView *domain.View
	for name, data := range map[string]any{"nil": nil, "nil view": nilView} {
		t.Run(name, func(t *testing.T) {
			if out := render(t, &TableFormatter{}, data); out != "" {
				t.Errorf("output = %q, want empty", out)
			}
		})
	}
}

func TestTableFormatter_Map(t *testing.T) {
	out := render(t, &TableFormatter{}, map[string]any{
		"status":  "success",
		"message": "",
		"count":   3,
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := []string{"KEY VALUE", "count 3", "message -", "status success"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i, line := range lines {
		if got := strings.Join(strings.Fields(line), " "); got != want[i] {
			t.Errorf("line %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	out := render(t, &TableFormatter{NoHeaders: true}, []domain.View{savingsView()})
	if strings.Contains(out, "TYPE") {
		t.Errorf("NoHeaders output contains header:\n%s", out)
	}
}

func TestTableFormatter_FallbackJSON(t *testing.T) {
	out := render(t, &TableFormatter{}, struct {
		Name string `json:"name"`
	}{"x"})
	if !strings.Contains(out, `"name": "x"`) {
		t.Errorf("fallback should be JSON, got %q", out)
	}
}

func TestTable_Render(t *testing.T) {
	var tbl Table
	tbl.SetHeaders("A", "LONGER")
	tbl.AddRow("1", "2")
	tbl.AddRow("333", "4")

	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "A    LONGER\n1    2\n333  4\n"
	if buf.String() != want {
		t.Errorf("Render =\n%q\nwant\n%q", buf.String(), want)
	}
}
