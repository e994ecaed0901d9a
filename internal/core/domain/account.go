package domain

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Account constraints.
const (
	MaxHolderNameLength = 50
)

var (
	// MaxInterestRate is the highest rate a SAVINGS account may carry.
	MaxInterestRate = decimal.RequireFromString("0.055")

	// MaxOverdraftLimit is the highest overdraft a CHECKING account may carry.
	MaxOverdraftLimit = decimal.NewFromInt(5000)
)

// Kind discriminates the two account variants.
type Kind string

const (
	// KindSavings accounts earn interest and never go below zero.
	KindSavings Kind = "SAVINGS"

	// KindChecking accounts may overdraw up to their limit.
	KindChecking Kind = "CHECKING"
)

// ParseKind parses an account type case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindSavings:
		return KindSavings, nil
	case KindChecking:
		return KindChecking, nil
	}
	return "", ErrUnknownAccountType.WithDetailsf("%q", s)
}

func (k Kind) String() string { return string(k) }

// Spec holds the fields needed to open an account.
// InterestRate is read for SAVINGS, OverdraftLimit for CHECKING.
type Spec struct {
	Kind           Kind
	Number         int64
	HolderName     string
	Balance        decimal.Decimal
	InterestRate   decimal.Decimal
	OverdraftLimit decimal.Decimal
}

// Patch carries the optional fields of a modification. A nil field is
// left untouched; a non-nil zero is applied as zero.
type Patch struct {
	HolderName     *string
	Balance        *decimal.Decimal
	InterestRate   *decimal.Decimal
	OverdraftLimit *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.HolderName == nil && p.Balance == nil && p.InterestRate == nil && p.OverdraftLimit == nil
}

// Account is a single ledger account.
//
// The number and kind never change after construction. Every other field is
// guarded by mu; callers mutate through the exported methods or Atomically.
type Account struct {
	mu sync.Mutex

	number int64
	kind   Kind

	holder  string
	balance decimal.Decimal
	rate    decimal.Decimal // SAVINGS only
	limit   decimal.Decimal // CHECKING only

	closed bool
}

// NewSavings creates a validated SAVINGS account.
func NewSavings(number int64, holder string, balance, rate decimal.Decimal) (*Account, error) {
	return New(Spec{
		Kind:         KindSavings,
		Number:       number,
		HolderName:   holder,
		Balance:      balance,
		InterestRate: rate,
	})
}

// NewChecking creates a validated CHECKING account.
func NewChecking(number int64, holder string, balance, limit decimal.Decimal) (*Account, error) {
	return New(Spec{
		Kind:           KindChecking,
		Number:         number,
		HolderName:     holder,
		Balance:        balance,
		OverdraftLimit: limit,
	})
}

// New creates an account from a spec, validating every field.
func New(s Spec) (*Account, error) {
	if err := ValidateNumber(s.Number); err != nil {
		return nil, err
	}
	name, err := normalizeHolderName(s.HolderName)
	if err != nil {
		return nil, err
	}

	if err := checkStored("balance", s.Balance); err != nil {
		return nil, err
	}

	a := &Account{
		number:  s.Number,
		kind:    s.Kind,
		holder:  name,
		balance: s.Balance,
	}

	switch s.Kind {
	case KindSavings:
		if err := validateRate(s.InterestRate); err != nil {
			return nil, err
		}
		a.rate = s.InterestRate
	case KindChecking:
		if err := validateLimit(s.OverdraftLimit); err != nil {
			return nil, err
		}
		a.limit = s.OverdraftLimit
	default:
		return nil, ErrUnknownAccountType.WithDetailsf("%q", string(s.Kind))
	}

	if err := a.checkFloor(s.Balance, a.limit); err != nil {
		return nil, err
	}
	return a, nil
}

// ValidateNumber checks an account number is positive.
func ValidateNumber(n int64) error {
	if n <= 0 {
		return ErrInvalidFieldValue.WithDetailsf("accountNumber must be positive, got %d", n)
	}
	return nil
}

func normalizeHolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidFieldValue.WithDetails("holderName must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxHolderNameLength {
		return "", ErrInvalidFieldValue.WithDetailsf("holderName exceeds %d characters", MaxHolderNameLength)
	}
	for _, r := range name {
		if unicode.IsDigit(r) {
			return "", ErrInvalidFieldValue.WithDetails("holderName must not contain digits")
		}
	}
	return name, nil
}

func validateRate(rate decimal.Decimal) error {
	if err := CheckDecimal("interestRate", rate); err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThan(MaxInterestRate) {
		return ErrInvalidFieldValue.WithDetailsf("interestRate must be between 0 and %s, got %s", MaxInterestRate, rate)
	}
	return nil
}

func validateLimit(limit decimal.Decimal) error {
	if err := CheckDecimal("overdraftLimit", limit); err != nil {
		return err
	}
	if limit.IsNegative() || limit.GreaterThan(MaxOverdraftLimit) {
		return ErrInvalidFieldValue.WithDetailsf("overdraftLimit must be between 0 and %s, got %s", MaxOverdraftLimit, limit)
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if err := CheckDecimal("amount", amount); err != nil {
		return err
	}
	if amount.IsNegative() {
		return ErrInvalidAmount.WithDetailsf("amount must not be negative, got %s", amount)
	}
	return nil
}

// checkFloor verifies balance against the variant's lower bound for the given limit.
func (a *Account) checkFloor(balance, limit decimal.Decimal) error {
	switch a.kind {
	case KindSavings:
		if balance.IsNegative() {
			return ErrInvalidAmount.WithDetailsf("savings balance must not be negative, got %s", balance)
		}
	case KindChecking:
		if balance.Add(limit).IsNegative() {
			return ErrInvalidAmount.WithDetailsf("checking balance %s is below the overdraft limit %s", balance, limit)
		}
	}
	return nil
}

// Number returns the immutable account number.
func (a *Account) Number() int64 { return a.number }

// Kind returns the immutable account variant.
func (a *Account) Kind() Kind { return a.kind }

// Atomically runs fn while holding the account lock. fn must not retain tx.
// A closed account rejects every transaction with ErrAccountNotFound.
func (a *Account) Atomically(fn func(tx *Tx) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAccountNotFound.WithDetailsf("account #%d is closed", a.number)
	}
	return fn(&Tx{a: a})
}

// Closed reports whether the account has been removed from its ledger.
func (a *Account) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Deposit adds amount and returns the new balance.
func (a *Account) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := a.Atomically(func(tx *Tx) (err error) {
		bal, err = tx.Deposit(amount)
		return err
	})
	return bal, err
}

// Withdraw subtracts amount and returns the new balance.
func (a *Account) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := a.Atomically(func(tx *Tx) (err error) {
		bal, err = tx.Withdraw(amount)
		return err
	})
	return bal, err
}

// ApplyInterest credits one period of interest to a SAVINGS account.
func (a *Account) ApplyInterest() (interest, balance decimal.Decimal, err error) {
	err = a.Atomically(func(tx *Tx) (err error) {
		interest, balance, err = tx.ApplyInterest()
		return err
	})
	return interest, balance, err
}

// Modify applies a patch atomically.
func (a *Account) Modify(p Patch) error {
	return a.Atomically(func(tx *Tx) error { return tx.Modify(p) })
}

// SetHolderName replaces the holder name.
func (a *Account) SetHolderName(name string) error {
	return a.Modify(Patch{HolderName: &name})
}

// SetBalance replaces the balance, subject to the variant's floor.
func (a *Account) SetBalance(balance decimal.Decimal) error {
	return a.Modify(Patch{Balance: &balance})
}

// SetInterestRate replaces the rate of a SAVINGS account.
func (a *Account) SetInterestRate(rate decimal.Decimal) error {
	return a.Modify(Patch{InterestRate: &rate})
}

// SetOverdraftLimit replaces the limit of a CHECKING account.
func (a *Account) SetOverdraftLimit(limit decimal.Decimal) error {
	return a.Modify(Patch{OverdraftLimit: &limit})
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// HolderName returns the current holder name.
func (a *Account) HolderName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder
}

// InterestRate returns the rate and true for SAVINGS accounts.
func (a *Account) InterestRate() (decimal.Decimal, bool) {
	if a.kind != KindSavings {
		return decimal.Zero, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rate, true
}

// OverdraftLimit returns the limit and true for CHECKING accounts.
func (a *Account) OverdraftLimit() (decimal.Decimal, bool) {
	if a.kind != KindChecking {
		return decimal.Zero, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limit, true
}

// View returns a consistent snapshot of the account.
func (a *Account) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view()
}

// Record returns the persisted form of the account.
func (a *Account) Record() Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record()
}

// Describe renders the account on one line: "<TYPE> <number> <holder> <balance> <rate|limit>".
func (a *Account) Describe() string {
	return a.View().Describe()
}

func (a *Account) view() View {
	v := View{
		Type:       a.kind,
		Number:     a.number,
		HolderName: a.holder,
		Balance:    a.balance,
	}
	switch a.kind {
	case KindSavings:
		r := a.rate
		v.InterestRate = &r
	case KindChecking:
		l := a.limit
		v.OverdraftLimit = &l
	}
	return v
}

// Tx is the handle passed to Atomically. Its methods assume the account lock
// is held and are only valid inside the callback.
type Tx struct {
	a *Account
}

// Number returns the account number.
func (tx *Tx) Number() int64 { return tx.a.number }

// Kind returns the account variant.
func (tx *Tx) Kind() Kind { return tx.a.kind }

// Balance returns the balance as seen inside the transaction.
func (tx *Tx) Balance() decimal.Decimal { return tx.a.balance }

// View returns a snapshot as seen inside the transaction.
func (tx *Tx) View() View { return tx.a.view() }

// Record returns the persisted form as seen inside the transaction.
func (tx *Tx) Record() Record { return tx.a.record() }

// Close marks the account as removed. Later transactions fail.
func (tx *Tx) Close() { tx.a.closed = true }

// Deposit adds amount and returns the new balance.
func (tx *Tx) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return tx.a.balance, err
	}
	next := tx.a.balance.Add(amount)
	if err := checkStored("balance", next); err != nil {
		return tx.a.balance, err
	}
	tx.a.balance = next
	return tx.a.balance, nil
}

// Withdraw subtracts amount if the variant's invariant still holds afterwards.
func (tx *Tx) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	a := tx.a
	if err := validateAmount(amount); err != nil {
		return a.balance, err
	}
	next := a.balance.Sub(amount)
	switch a.kind {
	case KindSavings:
		if next.IsNegative() {
			return a.balance, ErrInsufficientFunds.WithDetailsf("account #%d balance %s, requested %s", a.number, a.balance, amount)
		}
	case KindChecking:
		if next.Add(a.limit).IsNegative() {
			return a.balance, ErrOverdraftExceeded.WithDetailsf("account #%d balance %s, limit %s, requested %s", a.number, a.balance, a.limit, amount)
		}
	}
	a.balance = next
	return a.balance, nil
}

// ApplyInterest credits balance × rate. The result is exact; nothing is rounded.
func (tx *Tx) ApplyInterest() (interest, balance decimal.Decimal, err error) {
	a := tx.a
	if a.kind != KindSavings {
		return decimal.Zero, a.balance, ErrNotApplicable.WithDetailsf("interest on %s account #%d", a.kind, a.number)
	}
	interest = a.balance.Mul(a.rate)
	next := a.balance.Add(interest)
	if err := checkStored("balance", next); err != nil {
		return decimal.Zero, a.balance, err
	}
	a.balance = next
	return interest, a.balance, nil
}

// Modify validates every present field, then applies them all.
// Nothing changes when any field is rejected.
func (tx *Tx) Modify(p Patch) error {
	a := tx.a

	holder := a.holder
	if p.HolderName != nil {
		name, err := normalizeHolderName(*p.HolderName)
		if err != nil {
			return err
		}
		holder = name
	}

	rate, limit := a.rate, a.limit
	if p.InterestRate != nil {
		if a.kind != KindSavings {
			return ErrNotApplicable.WithDetailsf("interestRate on %s account #%d", a.kind, a.number)
		}
		if err := validateRate(*p.InterestRate); err != nil {
			return err
		}
		rate = *p.InterestRate
	}
	if p.OverdraftLimit != nil {
		if a.kind != KindChecking {
			return ErrNotApplicable.WithDetailsf("overdraftLimit on %s account #%d", a.kind, a.number)
		}
		if err := validateLimit(*p.OverdraftLimit); err != nil {
			return err
		}
		limit = *p.OverdraftLimit
	}

	balance := a.balance
	if p.Balance != nil {
		if err := CheckDecimal("balance", *p.Balance); err != nil {
			return err
		}
		balance = *p.Balance
	}
	// A lowered limit must still cover the current balance.
	if p.Balance != nil || p.OverdraftLimit != nil {
		if err := a.checkFloor(balance, limit); err != nil {
			return err
		}
	}

	a.holder, a.balance, a.rate, a.limit = holder, balance, rate, limit
	return nil
}

// String implements fmt.Stringer without taking the lock.
func (a *Account) String() string {
	return fmt.Sprintf("Account(#%d %s)", a.number, a.kind)
}
