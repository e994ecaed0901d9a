package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yndnr/ledgerd/internal/cli/connection"
	"github.com/yndnr/ledgerd/internal/cli/output"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// Doer sends one request and returns its response.
type Doer interface {
	Do(ctx context.Context, req connection.Request) (dispatch.Response, error)
}

// Config configures a REPL.
type Config struct {
	Client  Doer
	Input   io.Reader
	Output  io.Writer
	Prompt  string
	Format  output.Format
	Wide    bool
	Timeout time.Duration
	History *History
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	client    Doer
	input     io.Reader
	output    io.Writer
	prompt    string
	format    output.Format
	wide      bool
	timeout   time.Duration
	completer *Completer
	history   *History
}

// New creates a REPL. Client, Input and Output are required.
func New(cfg Config) *REPL {
	if cfg.Prompt == "" {
		cfg.Prompt = "ledger> "
	}
	if cfg.History == nil {
		cfg.History = NewHistory("")
	}
	return &REPL{
		client:    cfg.Client,
		input:     cfg.Input,
		output:    cfg.Output,
		prompt:    cfg.Prompt,
		format:    cfg.Format,
		wide:      cfg.Wide,
		timeout:   cfg.Timeout,
		completer: NewCompleter(),
		history:   cfg.History,
	}
}

// Run reads lines until EOF, EXIT or ctx is done. Command errors are
// printed and the loop continues; a lost connection ends it.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.output, r.prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}
		r.history.Add(line)

		done, execErr := r.execute(ctx, line)
		if execErr != nil {
			if errors.Is(execErr, connection.ErrClosed) {
				return execErr
			}
			fmt.Fprintf(r.output, "Error: %v\n", execErr)
		}
		if done || eof {
			return nil
		}
	}
}

// execute runs one line and reports whether the session is over.
func (r *REPL) execute(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			word, _, _ := strings.Cut(line, " ")
			if s := r.completer.Complete(word); len(s) > 0 {
				return false, fmt.Errorf("%w; did you mean %s?", err, strings.Join(s, ", "))
			}
		}
		return false, err
	}

	switch cmd.Local {
	case LocalHelp:
		r.printHelp()
		return false, nil
	case LocalHistory:
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false, nil
	}

	if cmd.Variant != "" {
		if err := r.resolveVariant(ctx, &cmd); err != nil {
			return false, err
		}
	}

	resp, err := r.do(ctx, cmd.Request)
	if err != nil {
		return false, err
	}
	if err := output.Response(r.output, r.format, r.wide, resp); err != nil {
		return false, err
	}
	return cmd.Action() == dispatch.ActionExit && resp.OK(), nil
}

// resolveVariant looks up the account kind to name a positional MODIFY's
// rate-or-limit field.
func (r *REPL) resolveVariant(ctx context.Context, cmd *Command) error {
	resp, err := r.do(ctx, connection.Request{
		dispatch.FieldAction:        dispatch.ActionDisplayOne,
		dispatch.FieldAccountNumber: cmd.Request[dispatch.FieldAccountNumber],
	})
	if err != nil {
		return err
	}
	if !resp.OK() || resp.Account == nil {
		return fmt.Errorf("%s [%s]", resp.Message, resp.Code)
	}
	cmd.Request[VariantField(string(resp.Account.Type))] = cmd.Variant
	return nil
}

func (r *REPL) do(ctx context.Context, req connection.Request) (dispatch.Response, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.client.Do(ctx, req)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, "Commands:")
	for _, action := range dispatch.Actions() {
		fmt.Fprintf(r.output, "  %s\n", usage[action])
	}
	fmt.Fprintf(r.output, "  %s\n  %s\n", LocalHelp, LocalHistory)
	fmt.Fprintln(r.output, "Aliases: SHOW=DISPLAY_ONE LIST=DISPLAY_ALL INTEREST=APPLY_INTEREST QUIT=EXIT")
}
