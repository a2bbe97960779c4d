package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// BalanceStore persists custodial balances and the market escrow next to the ledger records
type BalanceStore interface {
	// GetBalance returns the balance of an account, zero when it has none
	GetBalance(ctx context.Context, addr domain.Address) (uint64, error)
	SaveBalance(ctx context.Context, addr domain.Address, amount uint64) error
	GetEscrow(ctx context.Context) (uint64, error)
	SaveEscrow(ctx context.Context, amount uint64) error
}

// LedgerPayer keeps custodial balances in the ledger store, so escrowed bids
// and offers survive a restart together with the records that hold them.
type LedgerPayer struct {
	store BalanceStore
}

// NewLedgerPayer creates a payer over the ledger store
func NewLedgerPayer(store BalanceStore) *LedgerPayer {
	return &LedgerPayer{store: store}
}

// Bind returns a payer that reads and writes through tx
func (p *LedgerPayer) Bind(tx BalanceStore) Payer {
	return &LedgerPayer{store: tx}
}

func (p *LedgerPayer) Collect(ctx context.Context, from domain.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	balance, err := p.store.GetBalance(ctx, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", domain.ErrInsufficientFunds, from, balance, amount)
	}
	escrow, err := p.store.GetEscrow(ctx)
	if err != nil {
		return err
	}
	if escrow > math.MaxUint64-amount {
		return fmt.Errorf("%w: escrow", domain.ErrAmountOverflow)
	}

	if err := p.store.SaveBalance(ctx, from, balance-amount); err != nil {
		return err
	}
	return p.store.SaveEscrow(ctx, escrow+amount)
}

func (p *LedgerPayer) Pay(ctx context.Context, to domain.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	escrow, err := p.store.GetEscrow(ctx)
	if err != nil {
		return err
	}
	if escrow < amount {
		return fmt.Errorf("%w: escrow holds %d, cannot pay %d", domain.ErrPaymentFailed, escrow, amount)
	}
	balance, err := p.store.GetBalance(ctx, to)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s cannot receive %d: %w", domain.ErrPaymentFailed, to, amount, domain.ErrAmountOverflow)
	}

	if err := p.store.SaveEscrow(ctx, escrow-amount); err != nil {
		return err
	}
	return p.store.SaveBalance(ctx, to, balance+amount)
}

// Credit adds external funds to an account
func (p *LedgerPayer) Credit(ctx context.Context, to domain.Address, amount uint64) error {
	if !to.Valid() {
		return domain.ErrInvalidRecipient
	}
	if amount == 0 {
		return domain.ErrInvalidPrice
	}

	balance, err := p.store.GetBalance(ctx, to)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance of %s", domain.ErrAmountOverflow, to)
	}
	return p.store.SaveBalance(ctx, to, balance+amount)
}

func (p *LedgerPayer) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	return p.store.GetBalance(ctx, addr)
}

// Escrow returns the funds currently held by the market
func (p *LedgerPayer) Escrow(ctx context.Context) (uint64, error) {
	return p.store.GetEscrow(ctx)
}
