package payment

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

var (
	alice = domain.MustAddress("0x00000000000000000000000000000000000000a1")
	bob   = domain.MustAddress("0x00000000000000000000000000000000000000b1")
)

func TestWallets_CollectAndPay(t *testing.T) {
	ctx := context.Background()
	w := NewWallets()

	require.NoError(t, w.Deposit(alice, 100))
	require.NoError(t, w.Collect(ctx, alice, 60))
	assert.Equal(t, uint64(40), w.Balance(alice))
	assert.Equal(t, uint64(60), w.Escrow())

	require.NoError(t, w.Pay(ctx, bob, 50))
	assert.Equal(t, uint64(50), w.Balance(bob))
	assert.Equal(t, uint64(10), w.Escrow())
	assert.Equal(t, uint64(100), w.Total())
}

func TestWallets_Errors(t *testing.T) {
	ctx := context.Background()
	w := NewWallets()

	assert.ErrorIs(t, w.Deposit(domain.ZeroAddress, 1), domain.ErrInvalidRecipient)
	assert.ErrorIs(t, w.Deposit(alice, 0), domain.ErrInvalidPrice)

	require.NoError(t, w.Deposit(alice, 10))
	assert.ErrorIs(t, w.Collect(ctx, alice, 11), domain.ErrInsufficientFunds)
	assert.ErrorIs(t, w.Pay(ctx, bob, 1), domain.ErrPaymentFailed)

	require.NoError(t, w.Collect(ctx, alice, 10))
	w.Reject(bob)
	assert.ErrorIs(t, w.Pay(ctx, bob, 5), domain.ErrPaymentFailed)
	w.Accept(bob)
	assert.NoError(t, w.Pay(ctx, bob, 5))

	// Zero amounts are no-ops even for rejecting accounts
	w.Reject(bob)
	assert.NoError(t, w.Pay(ctx, bob, 0))
	assert.NoError(t, w.Collect(ctx, bob, 0))
}

func TestWallets_Savepoint(t *testing.T) {
	ctx := context.Background()
	w := NewWallets()
	require.NoError(t, w.Deposit(alice, 100))

	restore := w.Savepoint()
	require.NoError(t, w.Collect(ctx, alice, 70))
	require.NoError(t, w.Pay(ctx, bob, 70))
	assert.Equal(t, uint64(70), w.Balance(bob))

	restore()
	assert.Equal(t, uint64(100), w.Balance(alice))
	assert.Zero(t, w.Balance(bob))
	assert.Zero(t, w.Escrow())
}

func TestWallets_Overflow(t *testing.T) {
	ctx := context.Background()
	w := NewWallets()

	require.NoError(t, w.Deposit(bob, math.MaxUint64))
	assert.ErrorIs(t, w.Deposit(bob, 1), domain.ErrAmountOverflow)

	require.NoError(t, w.Deposit(alice, 10))
	require.NoError(t, w.Collect(ctx, alice, 10))

	err := w.Pay(ctx, bob, 5)
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Equal(t, uint64(math.MaxUint64), w.Balance(bob))
	assert.Equal(t, uint64(10), w.Escrow())

	require.NoError(t, w.Deposit(alice, math.MaxUint64))
	assert.ErrorIs(t, w.Collect(ctx, alice, math.MaxUint64), domain.ErrAmountOverflow)
	assert.Equal(t, uint64(math.MaxUint64), w.Balance(alice))
	assert.Equal(t, uint64(10), w.Escrow())
}
