package repl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/ledgerd/internal/cli/connection"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// Shell commands handled without a server round trip.
const (
	LocalHelp    = "HELP"
	LocalHistory = "HISTORY"
)

// skip is the placeholder for an unchanged positional MODIFY field.
const skip = "-"

// Fields sent by TRANSFER.
const (
	fieldFrom = "accountNumber1"
	fieldTo   = "accountNumber2"
)

var aliases = map[string]string{
	"SHOW":     dispatch.ActionDisplayOne,
	"LIST":     dispatch.ActionDisplayAll,
	"INTEREST": dispatch.ActionApplyInterest,
	"QUIT":     dispatch.ActionExit,
	"?":        LocalHelp,
}

// ErrUnknownCommand is returned by Parse for an unrecognized action.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one parsed shell line.
type Command struct {
	// Request is the envelope to send. Nil for local commands.
	Request connection.Request

	// Variant is the rate-or-limit value of a positional MODIFY. It is
	// sent as interestRate or overdraftLimit once the account kind is known.
	Variant string

	// Local names a shell command (LocalHelp, LocalHistory).
	Local string
}

// Action returns the request action, or the local command name.
func (c Command) Action() string {
	if c.Local != "" {
		return c.Local
	}
	action, _ := c.Request[dispatch.FieldAction].(string)
	return action
}

// usage lists the positional syntax of each action.
var usage = map[string]string{
	dispatch.ActionCreate:           "CREATE <SAVINGS|CHECKING> <number> <holder> <balance> <rate|limit>",
	dispatch.ActionDeposit:          "DEPOSIT <number> <amount>",
	dispatch.ActionWithdraw:         "WITHDRAW <number> <amount>",
	dispatch.ActionTransfer:         "TRANSFER <from> <to> <amount>",
	dispatch.ActionModify:           "MODIFY <number> <holder|-> <balance|-> <rate|limit|->  or  MODIFY <number> key=value...",
	dispatch.ActionDisplayOne:       "DISPLAY_ONE <number>",
	dispatch.ActionDisplayAll:       "DISPLAY_ALL",
	dispatch.ActionDelete:           "DELETE <number>",
	dispatch.ActionDeleteAll:        "DELETE_ALL",
	dispatch.ActionApplyInterest:    "APPLY_INTEREST <number|all>",
	dispatch.ActionApplyInterestOne: "APPLY_INTEREST_ONE <number>",
	dispatch.ActionApplyInterestAll: "APPLY_INTEREST_ALL",
	dispatch.ActionExport:           "EXPORT",
	dispatch.ActionExportJSON:       "EXPORT_JSON",
	dispatch.ActionPing:             "PING",
	dispatch.ActionExit:             "EXIT",
}

// positional maps the arguments of each action to field names, in order.
var positional = map[string][]string{
	dispatch.ActionDeposit:          {dispatch.FieldAccountNumber, dispatch.FieldAmount},
	dispatch.ActionWithdraw:         {dispatch.FieldAccountNumber, dispatch.FieldAmount},
	dispatch.ActionTransfer:         {fieldFrom, fieldTo, dispatch.FieldAmount},
	dispatch.ActionDisplayOne:       {dispatch.FieldAccountNumber},
	dispatch.ActionDisplayAll:       {},
	dispatch.ActionDelete:           {dispatch.FieldAccountNumber},
	dispatch.ActionDeleteAll:        {},
	dispatch.ActionApplyInterest:    {dispatch.FieldTarget},
	dispatch.ActionApplyInterestOne: {dispatch.FieldAccountNumber},
	dispatch.ActionApplyInterestAll: {},
	dispatch.ActionExport:           {},
	dispatch.ActionExportJSON:       {},
	dispatch.ActionPing:             {},
	dispatch.ActionExit:             {},
}

// Parse turns a shell line into a Command. The action is case-insensitive.
// Arguments are either all positional or all key=value pairs; holder names
// containing spaces must be quoted.
func Parse(line string) (Command, error) {
	words, err := splitWords(line)
	if err != nil {
		return Command{}, err
	}
	if len(words) == 0 {
		return Command{}, errors.New("empty command")
	}

	action := strings.ToUpper(words[0])
	if a, ok := aliases[action]; ok {
		action = a
	}
	args := words[1:]

	switch action {
	case LocalHelp, LocalHistory:
		return Command{Local: action}, nil
	}
	if _, ok := usage[action]; !ok {
		return Command{}, fmt.Errorf("%w %q (try HELP)", ErrUnknownCommand, words[0])
	}

	req := connection.Request{dispatch.FieldAction: action}
	if len(args) > 0 && isKeyValue(args) {
		for _, arg := range args {
			k, v, _ := strings.Cut(arg, "=")
			req[k] = v
		}
		return Command{Request: req}, nil
	}

	switch action {
	case dispatch.ActionCreate:
		return parseCreate(req, args)
	case dispatch.ActionModify:
		return parseModify(req, args)
	}

	names := positional[action]
	if len(args) != len(names) {
		return Command{}, usageError(action)
	}
	for i, name := range names {
		req[name] = args[i]
	}
	return Command{Request: req}, nil
}

func parseCreate(req connection.Request, args []string) (Command, error) {
	if len(args) != 5 {
		return Command{}, usageError(dispatch.ActionCreate)
	}
	kind := strings.ToUpper(args[0])
	req[dispatch.FieldAccountType] = kind
	req[dispatch.FieldAccountNumber] = args[1]
	req[dispatch.FieldHolderName] = args[2]
	req[dispatch.FieldBalance] = args[3]
	req[VariantField(kind)] = args[4]
	return Command{Request: req}, nil
}

func parseModify(req connection.Request, args []string) (Command, error) {
	if len(args) < 2 || len(args) > 4 {
		return Command{}, usageError(dispatch.ActionModify)
	}
	req[dispatch.FieldAccountNumber] = args[0]

	rest := args[1:]
	if isKeyValue(rest) {
		for _, arg := range rest {
			k, v, _ := strings.Cut(arg, "=")
			req[k] = v
		}
		return Command{Request: req}, nil
	}

	set := func(i int, field string) {
		if i < len(rest) && rest[i] != skip {
			req[field] = rest[i]
		}
	}
	set(0, dispatch.FieldHolderName)
	set(1, dispatch.FieldBalance)

	cmd := Command{Request: req}
	if len(rest) == 3 && rest[2] != skip {
		cmd.Variant = rest[2]
	}
	return cmd, nil
}

// VariantField names the kind-specific field of an account type.
func VariantField(kind string) string {
	if strings.EqualFold(kind, "CHECKING") {
		return dispatch.FieldOverdraftLimit
	}
	return dispatch.FieldInterestRate
}

func isKeyValue(args []string) bool {
	for _, arg := range args {
		k, _, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return false
		}
	}
	return true
}

func usageError(action string) error {
	return fmt.Errorf("usage: %s", usage[action])
}

// splitWords splits on whitespace, honoring single and double quotes.
func splitWords(line string) ([]string, error) {
	var (
		words  []string
		cur    strings.Builder
		quote  rune
		inWord bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

// Usage returns the syntax line of an action, or "" if unknown.
func Usage(action string) string {
	return usage[action]
}
