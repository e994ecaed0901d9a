package output

import (
	"fmt"
	"io"

	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// Response renders a server response in the given format. Failed responses
// are rendered too; the caller decides what a failure means for its exit
// status.
func Response(w io.Writer, format Format, wide bool, resp dispatch.Response) error {
	switch format {
	case FormatJSON:
		return (&JSONFormatter{}).Format(w, resp)
	case FormatYAML:
		return (&YAMLFormatter{}).Format(w, ResponseMap(resp))
	}

	if !resp.OK() {
		_, err := fmt.Fprintf(w, "Error: %s [%s]\n", resp.Message, resp.Code)
		return err
	}
	if _, err := fmt.Fprintln(w, resp.Message); err != nil {
		return err
	}

	table := &TableFormatter{Wide: wide}
	switch {
	case len(resp.Accounts) > 0:
		return table.Format(w, resp.Accounts)
	case resp.Account != nil:
		return table.Format(w, resp.Account)
	}
	return nil
}

// ResponseMap flattens a response into the keys of its JSON form, leaving
// out empty fields.
func ResponseMap(resp dispatch.Response) map[string]any {
	m := map[string]any{
		"status":  resp.Status,
		"message": resp.Message,
	}
	if resp.Code != "" {
		m["code"] = resp.Code
	}
	if resp.AccountNumber != 0 {
		m["accountNumber"] = resp.AccountNumber
	}
	if resp.Account != nil {
		m["account"] = *resp.Account
	}
	// A decoded listing keeps an empty, non-nil slice.
	if resp.Accounts != nil {
		m["accounts"] = resp.Accounts
	}
	if resp.Count != nil {
		m["count"] = *resp.Count
	}
	if resp.Balance != "" {
		m["balance"] = resp.Balance.String()
	}
	if resp.Interest != "" {
		m["interest"] = resp.Interest.String()
	}
	if resp.Path != "" {
		m["path"] = resp.Path
	}
	return m
}
