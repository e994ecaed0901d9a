package repl

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/ledgerd/internal/cli/connection"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    connection.Request
		variant string
	}{
		{
			name: "create savings",
			line: "CREATE SAVINGS 101 Alice 1000 0.03",
			want: connection.Request{
				"action": "CREATE", "accountType": "SAVINGS", "accountNumber": "101",
				"holderName": "Alice", "balance": "1000", "interestRate": "0.03",
			},
		},
		{
			name: "create checking lowercase",
			line: "create checking 102 Bob 500 200",
			want: connection.Request{
				"action": "CREATE", "accountType": "CHECKING", "accountNumber": "102",
				"holderName": "Bob", "balance": "500", "overdraftLimit": "200",
			},
		},
		{
			name: "quoted holder",
			line: `CREATE SAVINGS 103 "Carol Ann" 10 0.01`,
			want: connection.Request{
				"action": "CREATE", "accountType": "SAVINGS", "accountNumber": "103",
				"holderName": "Carol Ann", "balance": "10", "interestRate": "0.01",
			},
		},
		{
			name: "deposit",
			line: "DEPOSIT 101 250.50",
			want: connection.Request{"action": "DEPOSIT", "accountNumber": "101", "amount": "250.50"},
		},
		{
			name: "withdraw",
			line: "withdraw 102 650",
			want: connection.Request{"action": "WITHDRAW", "accountNumber": "102", "amount": "650"},
		},
		{
			name: "transfer",
			line: "TRANSFER 101 102 5",
			want: connection.Request{"action": "TRANSFER", "accountNumber1": "101", "accountNumber2": "102", "amount": "5"},
		},
		{
			name: "display alias",
			line: "show 101",
			want: connection.Request{"action": "DISPLAY_ONE", "accountNumber": "101"},
		},
		{
			name: "list alias",
			line: "LIST",
			want: connection.Request{"action": "DISPLAY_ALL"},
		},
		{
			name: "apply interest target",
			line: "APPLY_INTEREST all",
			want: connection.Request{"action": "APPLY_INTEREST", "target": "all"},
		},
		{
			name: "apply interest one",
			line: "APPLY_INTEREST_ONE 101",
			want: connection.Request{"action": "APPLY_INTEREST_ONE", "accountNumber": "101"},
		},
		{
			name: "export json",
			line: "EXPORT_JSON",
			want: connection.Request{"action": "EXPORT_JSON"},
		},
		{
			name: "quit alias",
			line: "quit",
			want: connection.Request{"action": "EXIT"},
		},
		{
			name: "key value",
			line: "DEPOSIT accountNumber=101 amount=5",
			want: connection.Request{"action": "DEPOSIT", "accountNumber": "101", "amount": "5"},
		},
		{
			name:    "modify positional",
			line:    `MODIFY 101 "Alice Smith" 1200 0.04`,
			want:    connection.Request{"action": "MODIFY", "accountNumber": "101", "holderName": "Alice Smith", "balance": "1200"},
			variant: "0.04",
		},
		{
			name: "modify skips fields",
			line: "MODIFY 101 Bob - -",
			want: connection.Request{"action": "MODIFY", "accountNumber": "101", "holderName": "Bob"},
		},
		{
			name: "modify holder only",
			line: "MODIFY 101 Bob",
			want: connection.Request{"action": "MODIFY", "accountNumber": "101", "holderName": "Bob"},
		},
		{
			name: "modify key value",
			line: "MODIFY 102 overdraft=300",
			want: connection.Request{"action": "MODIFY", "accountNumber": "102", "overdraft": "300"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			if !reflect.DeepEqual(cmd.Request, tt.want) {
				t.Errorf("Request = %v, want %v", cmd.Request, tt.want)
			}
			if cmd.Variant != tt.variant {
				t.Errorf("Variant = %q, want %q", cmd.Variant, tt.variant)
			}
		})
	}
}

func TestParse_Local(t *testing.T) {
	for line, want := range map[string]string{"help": LocalHelp, "?": LocalHelp, "History": LocalHistory} {
		cmd, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		if cmd.Local != want || cmd.Request != nil {
			t.Errorf("Parse(%q) = %+v, want local %s", line, cmd, want)
		}
		if cmd.Action() != want {
			t.Errorf("Action() = %q, want %q", cmd.Action(), want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{"empty", "   ", "empty command"},
		{"unknown", "FROB 1", "unknown command"},
		{"create arity", "CREATE SAVINGS 101 Alice 1000", "usage: CREATE"},
		{"deposit arity", "DEPOSIT 101", "usage: DEPOSIT"},
		{"display all extra", "DISPLAY_ALL 3", "usage: DISPLAY_ALL"},
		{"modify arity", "MODIFY 101", "usage: MODIFY"},
		{"unterminated quote", `CREATE SAVINGS 1 "Al 1 1`, "unterminated quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %q", tt.line, err, tt.wantErr)
			}
		})
	}

	if _, err := Parse("FROB"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v, want ErrUnknownCommand", err)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"a b  c", []string{"a", "b", "c"}},
		{`a "b c" d`, []string{"a", "b c", "d"}},
		{`a 'it"s' d`, []string{"a", `it"s`, "d"}},
		{`a ""`, []string{"a", ""}},
		{"\ta\r\n", []string{"a"}},
	}

	for _, tt := range tests {
		got, err := splitWords(tt.line)
		if err != nil {
			t.Fatalf("splitWords(%q): %v", tt.line, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitWords(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestVariantField(t *testing.T) {
	if got := VariantField("checking"); got != "overdraftLimit" {
		t.Errorf("VariantField(checking) = %q", got)
	}
	if got := VariantField("SAVINGS"); got != "interestRate" {
		t.Errorf("VariantField(SAVINGS) = %q", got)
	}
}
