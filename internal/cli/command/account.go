package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgerd/internal/cli/connection"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// CreateCommand opens an account.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Open a savings or checking account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Aliases:  []string{"T"},
				Usage:    "Account type: savings or checking",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "number",
				Aliases:  []string{"n"},
				Usage:    "Account number",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "holder",
				Usage:    "Holder name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "balance",
				Usage: "Opening balance",
				Value: "0",
			},
			&cli.StringFlag{
				Name:  "rate",
				Usage: "Interest rate (savings)",
			},
			&cli.StringFlag{
				Name:  "limit",
				Usage: "Overdraft limit (checking)",
			},
		},
		Action: createAction,
	}
}

func createAction(c *cli.Context) error {
	kind := strings.ToUpper(c.String("type"))
	req := connection.Request{
		dispatch.FieldAction:        dispatch.ActionCreate,
		dispatch.FieldAccountType:   kind,
		dispatch.FieldAccountNumber: c.Int64("number"),
		dispatch.FieldHolderName:    c.String("holder"),
		dispatch.FieldBalance:       c.String("balance"),
	}
	switch kind {
	case "SAVINGS":
		if !c.IsSet("rate") {
			return cli.Exit("error: --rate is required for savings accounts", exitFailed)
		}
		req[dispatch.FieldInterestRate] = c.String("rate")
	case "CHECKING":
		if !c.IsSet("limit") {
			return cli.Exit("error: --limit is required for checking accounts", exitFailed)
		}
		req[dispatch.FieldOverdraftLimit] = c.String("limit")
	}
	return send(c, req)
}

// DepositCommand credits an account.
func DepositCommand() *cli.Command {
	return &cli.Command{
		Name:      "deposit",
		Usage:     "Deposit into an account",
		ArgsUsage: "NUMBER AMOUNT",
		Action:    fundsAction(dispatch.ActionDeposit),
	}
}

// WithdrawCommand debits an account.
func WithdrawCommand() *cli.Command {
	return &cli.Command{
		Name:      "withdraw",
		Usage:     "Withdraw from an account",
		ArgsUsage: "NUMBER AMOUNT",
		Action:    fundsAction(dispatch.ActionWithdraw),
	}
}

func fundsAction(action string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := requireArgs(c, 2); err != nil {
			return err
		}
		return send(c, connection.Request{
			dispatch.FieldAction:        action,
			dispatch.FieldAccountNumber: c.Args().Get(0),
			dispatch.FieldAmount:        c.Args().Get(1),
		})
	}
}

// TransferCommand moves funds between accounts.
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Transfer between accounts",
		ArgsUsage: "FROM TO AMOUNT",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 3); err != nil {
				return err
			}
			return send(c, connection.Request{
				dispatch.FieldAction: dispatch.ActionTransfer,
				"accountNumber1":     c.Args().Get(0),
				"accountNumber2":     c.Args().Get(1),
				dispatch.FieldAmount: c.Args().Get(2),
			})
		},
	}
}

// ModifyCommand updates the supplied fields of an account.
func ModifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "modify",
		Aliases:   []string{"update"},
		Usage:     "Modify an account; only the given fields change",
		ArgsUsage: "NUMBER",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "holder", Usage: "New holder name"},
			&cli.StringFlag{Name: "balance", Usage: "New balance"},
			&cli.StringFlag{Name: "rate", Usage: "New interest rate (savings)"},
			&cli.StringFlag{Name: "limit", Usage: "New overdraft limit (checking)"},
		},
		Action: modifyAction,
	}
}

func modifyAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	req := connection.Request{
		dispatch.FieldAction:        dispatch.ActionModify,
		dispatch.FieldAccountNumber: c.Args().First(),
	}
	for flag, field := range map[string]string{
		"holder":  dispatch.FieldHolderName,
		"balance": dispatch.FieldBalance,
		"rate":    dispatch.FieldInterestRate,
		"limit":   dispatch.FieldOverdraftLimit,
	} {
		if c.IsSet(flag) {
			req[field] = c.String(flag)
		}
	}
	if len(req) == 2 {
		return cli.Exit("error: nothing to modify; pass --holder, --balance, --rate or --limit", exitFailed)
	}
	return send(c, req)
}

// ShowCommand displays one account.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Aliases:   []string{"get"},
		Usage:     "Display one account",
		ArgsUsage: "NUMBER",
		Action:    numberAction(dispatch.ActionDisplayOne),
	}
}

// ListCommand displays every account.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Display all accounts",
		Action:  simpleAction(dispatch.ActionDisplayAll),
	}
}

// DeleteCommand closes an account.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete an account",
		ArgsUsage: "NUMBER",
		Action:    numberAction(dispatch.ActionDelete),
	}
}

// DeleteAllCommand removes every account.
func DeleteAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete-all",
		Usage: "Delete every account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Skip confirmation",
			},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("force") && !confirm(c, "Delete ALL accounts? [y/N]: ") {
				fmt.Fprintln(c.App.Writer, "Aborted.")
				return nil
			}
			return simpleAction(dispatch.ActionDeleteAll)(c)
		},
	}
}

// InterestCommand applies interest to one savings account or all of them.
func InterestCommand() *cli.Command {
	return &cli.Command{
		Name:      "interest",
		Usage:     "Apply interest to a savings account, or to all with \"all\"",
		ArgsUsage: "NUMBER|all",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			return send(c, connection.Request{
				dispatch.FieldAction: dispatch.ActionApplyInterest,
				dispatch.FieldTarget: c.Args().First(),
			})
		},
	}
}

// PingCommand checks the server answers.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check the server is reachable",
		Action: simpleAction(dispatch.ActionPing),
	}
}

func numberAction(action string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := requireArgs(c, 1); err != nil {
			return err
		}
		return send(c, connection.Request{
			dispatch.FieldAction:        action,
			dispatch.FieldAccountNumber: c.Args().First(),
		})
	}
}

func simpleAction(action string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 0 {
			return cli.Exit(fmt.Sprintf("error: %s takes no arguments", c.Command.Name), exitFailed)
		}
		return send(c, connection.Request{dispatch.FieldAction: action})
	}
}

// confirm asks a yes/no question on the app's reader.
func confirm(c *cli.Context, prompt string) bool {
	fmt.Fprint(c.App.Writer, prompt)
	line, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
