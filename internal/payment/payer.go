package payment

import (
	"context"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Payer moves native funds between accounts and the market escrow.
// A failed call aborts the whole market operation.
//
//go:generate mockgen -source=payer.go -destination=../mocks/payer.go -package=mocks -mock_names=Payer=MockPayer,Depositor=MockDepositor,BalanceReader=MockBalanceReader,Binder=MockBinder
type Payer interface {
	// Collect takes amount from the account into escrow
	Collect(ctx context.Context, from domain.Address, amount uint64) error
	// Pay releases amount from escrow to the account
	Pay(ctx context.Context, to domain.Address, amount uint64) error
}

// Depositor credits external funds to an account
type Depositor interface {
	Credit(ctx context.Context, to domain.Address, amount uint64) error
}

// BalanceReader reads the spendable balance of an account
type BalanceReader interface {
	BalanceOf(ctx context.Context, addr domain.Address) (uint64, error)
}

// Binder is a Payer whose balances live in the ledger store. Bind scopes it to
// the transaction of one operation so payments commit or roll back with it.
type Binder interface {
	Bind(tx BalanceStore) Payer
}
