package payment

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Wallets is a custodial in-memory balance sheet. Funds collected by the
// market sit in escrow until paid out, so the sum of all balances plus escrow
// only changes through Deposit.
type Wallets struct {
	mu        sync.Mutex
	balances  map[domain.Address]uint64
	escrow    uint64
	rejecting map[domain.Address]bool
}

// NewWallets creates an empty balance sheet
func NewWallets() *Wallets {
	return &Wallets{
		balances:  make(map[domain.Address]uint64),
		rejecting: make(map[domain.Address]bool),
	}
}

// Deposit credits an account with external funds
func (w *Wallets) Deposit(to domain.Address, amount uint64) error {
	if !to.Valid() {
		return domain.ErrInvalidRecipient
	}
	if amount == 0 {
		return domain.ErrInvalidPrice
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.balances[to] > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance of %s", domain.ErrAmountOverflow, to)
	}
	w.balances[to] += amount
	return nil
}

// Credit is Deposit for the Depositor interface
func (w *Wallets) Credit(ctx context.Context, to domain.Address, amount uint64) error {
	return w.Deposit(to, amount)
}

// Balance returns the spendable balance of an account
func (w *Wallets) Balance(addr domain.Address) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[addr]
}

func (w *Wallets) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	return w.Balance(addr), nil
}

// Escrow returns the funds currently held by the market
func (w *Wallets) Escrow() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.escrow
}

// Total returns all balances plus escrow
func (w *Wallets) Total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := w.escrow
	for _, b := range w.balances {
		total += b
	}
	return total
}

// Reject makes every payment to addr fail, like a contract without a payable fallback
func (w *Wallets) Reject(addr domain.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rejecting[addr] = true
}

// Accept clears a previous Reject
func (w *Wallets) Accept(addr domain.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.rejecting, addr)
}

func (w *Wallets) Collect(ctx context.Context, from domain.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", domain.ErrInsufficientFunds, from, w.balances[from], amount)
	}
	if w.escrow > math.MaxUint64-amount {
		return fmt.Errorf("%w: escrow", domain.ErrAmountOverflow)
	}
	w.balances[from] -= amount
	w.escrow += amount
	return nil
}

func (w *Wallets) Pay(ctx context.Context, to domain.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rejecting[to] {
		return fmt.Errorf("%w: %s rejected %d", domain.ErrPaymentFailed, to, amount)
	}
	if w.escrow < amount {
		return fmt.Errorf("%w: escrow holds %d, cannot pay %d", domain.ErrPaymentFailed, w.escrow, amount)
	}
	if w.balances[to] > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s cannot receive %d: %w", domain.ErrPaymentFailed, to, amount, domain.ErrAmountOverflow)
	}
	w.escrow -= amount
	w.balances[to] += amount
	return nil
}

// Savepoint captures the balance sheet; the returned func restores it
func (w *Wallets) Savepoint() func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	balances := make(map[domain.Address]uint64, len(w.balances))
	for k, v := range w.balances {
		balances[k] = v
	}
	escrow := w.escrow

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.balances = balances
		w.escrow = escrow
	}
}
