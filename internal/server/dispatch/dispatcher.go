package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgerd/internal/core/domain"
	"github.com/yndnr/ledgerd/internal/core/service"
	"github.com/yndnr/ledgerd/internal/telemetry/logger"
)

// Actions.
const (
	ActionCreate           = "CREATE"
	ActionDeposit          = "DEPOSIT"
	ActionWithdraw         = "WITHDRAW"
	ActionTransfer         = "TRANSFER"
	ActionModify           = "MODIFY"
	ActionDisplayOne       = "DISPLAY_ONE"
	ActionDisplayAll       = "DISPLAY_ALL"
	ActionDelete           = "DELETE"
	ActionDeleteAll        = "DELETE_ALL"
	ActionApplyInterest    = "APPLY_INTEREST"
	ActionApplyInterestOne = "APPLY_INTEREST_ONE"
	ActionApplyInterestAll = "APPLY_INTEREST_ALL"
	ActionExport           = "EXPORT"
	ActionExportJSON       = "EXPORT_JSON"
	ActionPing             = "PING"
	ActionExit             = "EXIT"
)

// actionInvalid labels metrics for requests that never reached an action.
const actionInvalid = "INVALID"

// Ledger is the subset of service.Ledger the dispatcher drives.
type Ledger interface {
	Create(ctx context.Context, spec domain.Spec) (service.CreateResult, error)
	Deposit(ctx context.Context, number int64, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, number int64, amount decimal.Decimal) (decimal.Decimal, error)
	Modify(ctx context.Context, number int64, patch domain.Patch) (domain.View, error)
	Close(ctx context.Context, number int64) error
	Get(number int64) (domain.View, error)
	ListAll() []domain.View
	DeleteAll(ctx context.Context) (int, error)
	ApplyInterestTo(ctx context.Context, target service.Target) (service.InterestResult, error)
}

// Exporter writes the bulk export document somewhere outside the process.
type Exporter interface {
	Export(ctx context.Context) (service.ExportResult, error)
}

// Observer receives one call per handled request.
type Observer interface {
	ObserveRequest(action, status string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, time.Duration) {}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExporter makes EXPORT write through e. Without one, EXPORT returns the
// document inline.
func WithExporter(e Exporter) Option {
	return func(d *Dispatcher) {
		d.exporter = e
	}
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

type handlerFunc func(ctx context.Context, f fields) (Response, error)

// Dispatcher routes request envelopes to the ledger.
type Dispatcher struct {
	ledger   Ledger
	exporter Exporter
	observer Observer
	logger   *slog.Logger
	handlers map[string]handlerFunc
}

// New creates a dispatcher over ledger.
func New(ledger Ledger, log *slog.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		ledger:   ledger,
		observer: nopObserver{},
		logger:   log,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.handlers = map[string]handlerFunc{
		ActionCreate:           d.handleCreate,
		ActionDeposit:          d.handleDeposit,
		ActionWithdraw:         d.handleWithdraw,
		ActionTransfer:         d.handleTransfer,
		ActionModify:           d.handleModify,
		ActionDisplayOne:       d.handleDisplayOne,
		ActionDisplayAll:       d.handleDisplayAll,
		ActionDelete:           d.handleDelete,
		ActionDeleteAll:        d.handleDeleteAll,
		ActionApplyInterest:    d.handleApplyInterest,
		ActionApplyInterestOne: d.handleApplyInterestOne,
		ActionApplyInterestAll: d.handleApplyInterestAll,
		ActionExport:           d.handleExport,
		ActionExportJSON:       d.handleExport,
		ActionPing:             d.handlePing,
		ActionExit:             d.handleExit,
	}

	return d
}

// HandleFrame decodes one envelope and dispatches it.
func (d *Dispatcher) HandleFrame(ctx context.Context, frame []byte) Response {
	req, err := Decode(frame)
	if err != nil {
		resp := Failure(err)
		d.observer.ObserveRequest(actionInvalid, resp.Status, 0)
		logger.L(ctx, d.logger).Debug("rejected envelope", "code", resp.Code, "error", err)
		return resp
	}
	return d.Handle(ctx, req)
}

// Handle dispatches a decoded request. It never panics.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	log := logger.L(ctx, d.logger).With("action", req.Action)

	label := req.Action
	handler, ok := d.handlers[req.Action]
	if !ok {
		label = actionInvalid
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", "panic", r, "stack", string(debug.Stack()))
			resp = Failure(domain.ErrInternal)
		}
		d.observer.ObserveRequest(label, resp.Status, time.Since(start))
	}()

	if !ok {
		log.Debug("unknown action")
		return Failure(domain.ErrUnknownAction.WithDetailsf("%q", req.Action))
	}

	resp, err := handler(ctx, fields(req.Fields))
	if err != nil {
		resp = Failure(err)
		log.Debug("request failed", "code", resp.Code, "error", err)
		return resp
	}

	log.Debug("request handled", "elapsed", time.Since(start))
	return resp
}

// ============================================================================
// Account lifecycle
// ============================================================================

func (d *Dispatcher) handleCreate(ctx context.Context, f fields) (Response, error) {
	typ, err := f.requireString(FieldAccountType)
	if err != nil {
		return Response{}, err
	}
	kind, err := domain.ParseKind(typ)
	if err != nil {
		return Response{}, err
	}

	spec := domain.Spec{Kind: kind}
	if spec.Number, err = f.requireInt(FieldAccountNumber); err != nil {
		return Response{}, err
	}
	if spec.HolderName, err = f.requireString(FieldHolderName); err != nil {
		return Response{}, err
	}
	if spec.Balance, err = f.requireDecimal(FieldBalance); err != nil {
		return Response{}, err
	}
	switch kind {
	case domain.KindSavings:
		spec.InterestRate, err = f.requireDecimal(FieldInterestRate)
	case domain.KindChecking:
		spec.OverdraftLimit, err = f.requireDecimal(FieldOverdraftLimit)
	}
	if err != nil {
		return Response{}, err
	}

	res, err := d.ledger.Create(ctx, spec)
	if err != nil {
		return Response{}, err
	}

	resp := success("Account created!")
	resp.AccountNumber = res.Number
	return resp, nil
}

func (d *Dispatcher) handleDeposit(ctx context.Context, f fields) (Response, error) {
	return d.moveFunds(ctx, f, d.ledger.Deposit)
}

func (d *Dispatcher) handleWithdraw(ctx context.Context, f fields) (Response, error) {
	return d.moveFunds(ctx, f, d.ledger.Withdraw)
}

func (d *Dispatcher) moveFunds(ctx context.Context, f fields, op func(context.Context, int64, decimal.Decimal) (decimal.Decimal, error)) (Response, error) {
	number, err := f.requireInt(FieldAccountNumber)
	if err != nil {
		return Response{}, err
	}
	amount, err := f.requireDecimal(FieldAmount)
	if err != nil {
		return Response{}, err
	}

	balance, err := op(ctx, number, amount)
	if err != nil {
		return Response{}, err
	}

	resp := success("New balance of $" + balance.String())
	resp.AccountNumber = number
	resp.Balance = json.Number(balance.String())
	return resp, nil
}

// handleTransfer answers TRANSFER without touching any account.
func (d *Dispatcher) handleTransfer(context.Context, fields) (Response, error) {
	return Response{}, domain.ErrNotImplemented.WithDetails("TRANSFER")
}

func (d *Dispatcher) handleModify(ctx context.Context, f fields) (Response, error) {
	number, err := f.requireInt(FieldAccountNumber)
	if err != nil {
		return Response{}, err
	}

	var patch domain.Patch
	if patch.HolderName, err = f.optionalString(FieldHolderName); err != nil {
		return Response{}, err
	}
	if patch.Balance, err = f.optionalDecimal(FieldBalance); err != nil {
		return Response{}, err
	}
	if patch.InterestRate, err = f.optionalDecimal(FieldInterestRate); err != nil {
		return Response{}, err
	}
	if patch.OverdraftLimit, err = f.optionalDecimal(FieldOverdraftLimit); err != nil {
		return Response{}, err
	}

	view, err := d.ledger.Modify(ctx, number, patch)
	if err != nil {
		return Response{}, err
	}

	resp := success("Account modified!")
	resp.AccountNumber = number
	resp.Account = &view
	return resp, nil
}

func (d *Dispatcher) handleDelete(ctx context.Context, f fields) (Response, error) {
	number, err := f.requireInt(FieldAccountNumber)
	if err != nil {
		return Response{}, err
	}
	if err := d.ledger.Close(ctx, number); err != nil {
		return Response{}, err
	}

	resp := success("Account deleted!")
	resp.AccountNumber = number
	return resp, nil
}

func (d *Dispatcher) handleDeleteAll(ctx context.Context, _ fields) (Response, error) {
	n, err := d.ledger.DeleteAll(ctx)
	if err != nil {
		return Response{}, err
	}

	resp := success(fmt.Sprintf("%d account(s) deleted!", n))
	resp.Count = &n
	return resp, nil
}

// ============================================================================
// Reads
// ============================================================================

func (d *Dispatcher) handleDisplayOne(_ context.Context, f fields) (Response, error) {
	number, err := f.requireInt(FieldAccountNumber)
	if err != nil {
		return Response{}, err
	}
	view, err := d.ledger.Get(number)
	if err != nil {
		return Response{}, err
	}

	resp := success(view.Describe())
	resp.AccountNumber = number
	resp.Account = &view
	return resp, nil
}

func (d *Dispatcher) handleDisplayAll(context.Context, fields) (Response, error) {
	views := d.ledger.ListAll()
	return listing(fmt.Sprintf("%d account(s)", len(views)), views), nil
}

// ============================================================================
// Interest
// ============================================================================

func (d *Dispatcher) handleApplyInterest(ctx context.Context, f fields) (Response, error) {
	all, number, err := f.target()
	if err != nil {
		return Response{}, err
	}
	return d.applyInterest(ctx, service.Target{All: all, Number: number})
}

func (d *Dispatcher) handleApplyInterestOne(ctx context.Context, f fields) (Response, error) {
	number, err := f.requireInt(FieldAccountNumber)
	if err != nil {
		return Response{}, err
	}
	return d.applyInterest(ctx, service.Target{Number: number})
}

func (d *Dispatcher) handleApplyInterestAll(ctx context.Context, _ fields) (Response, error) {
	return d.applyInterest(ctx, service.Target{All: true})
}

func (d *Dispatcher) applyInterest(ctx context.Context, target service.Target) (Response, error) {
	res, err := d.ledger.ApplyInterestTo(ctx, target)
	if err != nil {
		return Response{}, err
	}

	if target.All {
		resp := success(fmt.Sprintf("Interest applied to %d account(s)", res.Applied))
		resp.Count = &res.Applied
		return resp, nil
	}

	resp := success("New balance of $" + res.Balance.String())
	resp.AccountNumber = target.Number
	resp.Balance = json.Number(res.Balance.String())
	resp.Interest = json.Number(res.Interest.String())
	return resp, nil
}

// ============================================================================
// Export and session control
// ============================================================================

func (d *Dispatcher) handleExport(ctx context.Context, _ fields) (Response, error) {
	if d.exporter == nil {
		views := d.ledger.ListAll()
		return listing(fmt.Sprintf("%d account(s) exported", len(views)), views), nil
	}

	res, err := d.exporter.Export(ctx)
	if err != nil {
		return Response{}, domain.ErrInternal.WithDetails("export failed").WithCause(err)
	}

	resp := success(fmt.Sprintf("%d account(s) exported to %s", res.Count, res.Path))
	resp.Count = &res.Count
	resp.Path = res.Path
	return resp, nil
}

func (d *Dispatcher) handlePing(context.Context, fields) (Response, error) {
	return success("PONG"), nil
}

func (d *Dispatcher) handleExit(context.Context, fields) (Response, error) {
	resp := success("Goodbye!")
	resp.Terminal = true
	return resp, nil
}

// Actions lists the supported actions, for help output.
func Actions() []string {
	return []string{
		ActionCreate, ActionDeposit, ActionWithdraw, ActionTransfer, ActionModify,
		ActionDisplayOne, ActionDisplayAll, ActionDelete, ActionDeleteAll,
		ActionApplyInterest, ActionApplyInterestOne, ActionApplyInterestAll,
		ActionExport, ActionExportJSON, ActionPing, ActionExit,
	}
}
