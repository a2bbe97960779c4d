package market_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

func TestSetPlatformFeeRate(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	assert.Equal(t, operator, tm.market.Operator())

	assert.ErrorIs(t, tm.market.SetPlatformFeeRate(ctx, seller, 100), domain.ErrUnauthorized)
	assert.ErrorIs(t, tm.market.SetPlatformFeeRate(ctx, operator, 1001), domain.ErrFeeTooHigh)

	require.NoError(t, tm.market.SetPlatformFeeRate(ctx, operator, 1000))
	settings, err := tm.market.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1000), settings.PlatformFeeBp)

	require.Len(t, tm.recorder.Events(), 1)
	event := tm.recorder.Events()[0]
	assert.Equal(t, domain.EventTypePlatformFeeUpdated, event.Type)
	assert.Equal(t, "250", event.OldValue)
	assert.Equal(t, "1000", event.NewValue)

	// The new rate applies to the next sale
	ref := tm.ticket(t, "1", seller)
	tm.fund(t, buyer, 1_000)
	listing, err := tm.market.CreateListing(ctx, seller, ref, 1_000, 0, seller)
	require.NoError(t, err)
	sale, err := tm.market.BuyListing(ctx, listing.ID, buyer, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), sale.PlatformFee)
	assert.Equal(t, uint64(900), sale.SellerProceeds)

	require.NoError(t, tm.market.SetPlatformFeeRate(ctx, operator, 0))
	ref2 := tm.ticket(t, "2", seller)
	tm.fund(t, buyer, 1_000)
	listing, err = tm.market.CreateListing(ctx, seller, ref2, 1_000, 0, seller)
	require.NoError(t, err)
	sale, err = tm.market.BuyListing(ctx, listing.ID, buyer, 1_000)
	require.NoError(t, err)
	assert.Zero(t, sale.PlatformFee)
	assert.Equal(t, uint64(1_000), sale.SellerProceeds)
}

func TestSetPlatformContract(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	assert.ErrorIs(t, tm.market.SetPlatformContract(ctx, stranger, creator), domain.ErrUnauthorized)
	assert.ErrorIs(t, tm.market.SetPlatformContract(ctx, operator, domain.Address("0x1234")), domain.ErrInvalidAddress)

	require.NoError(t, tm.market.SetPlatformContract(ctx, operator, creator))
	settings, err := tm.market.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, creator, settings.PlatformContract)

	// The zero address turns notifications off
	require.NoError(t, tm.market.SetPlatformContract(ctx, operator, domain.ZeroAddress))
	settings, err = tm.market.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.PlatformContract.IsZero())

	require.Len(t, tm.recorder.Events(), 2)
	assert.Equal(t, domain.ZeroAddress.String(), tm.recorder.Events()[0].OldValue)
	assert.Equal(t, creator.String(), tm.recorder.Events()[0].NewValue)
	assert.Equal(t, creator.String(), tm.recorder.Events()[1].OldValue)
}

func TestWithdrawFees(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	_, err := tm.market.WithdrawFees(ctx, seller)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = tm.market.WithdrawFees(ctx, operator)
	assert.ErrorIs(t, err, domain.ErrNoFeesToWithdraw)

	ref := tm.ticket(t, "1", seller)
	tm.fund(t, buyer, 100)
	listing, err := tm.market.CreateListing(ctx, seller, ref, 100, 500, creator)
	require.NoError(t, err)
	_, err = tm.market.BuyListing(ctx, listing.ID, buyer, 100)
	require.NoError(t, err)

	// A failed payout keeps the pool intact
	tm.wallets.Reject(operator)
	_, err = tm.market.WithdrawFees(ctx, operator)
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	assert.Equal(t, uint64(2), tm.stats(t).AccumulatedPlatformFees)
	tm.wallets.Accept(operator)

	tm.recorder.Reset()
	amount, err := tm.market.WithdrawFees(ctx, operator)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), amount)
	assert.Equal(t, uint64(2), tm.wallets.Balance(operator))
	assert.Zero(t, tm.wallets.Escrow())

	stats := tm.stats(t)
	assert.Zero(t, stats.AccumulatedPlatformFees)
	assert.Equal(t, uint64(100), stats.TotalVolume)

	assert.Equal(t, []domain.EventType{domain.EventTypeFeesWithdrawn}, tm.recorder.Types())
	assert.Equal(t, uint64(2), tm.recorder.Events()[0].Amount)

	_, err = tm.market.WithdrawFees(ctx, operator)
	assert.ErrorIs(t, err, domain.ErrNoFeesToWithdraw)
}

func TestDeposit(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	assert.ErrorIs(t, tm.market.Deposit(ctx, seller, buyer, 100), domain.ErrUnauthorized)
	assert.ErrorIs(t, tm.market.Deposit(ctx, operator, buyer, 0), domain.ErrInvalidPrice)
	assert.ErrorIs(t, tm.market.Deposit(ctx, operator, domain.ZeroAddress, 100), domain.ErrInvalidRecipient)

	require.NoError(t, tm.market.Deposit(ctx, operator, buyer, 100))
	assert.Equal(t, uint64(100), tm.wallets.Balance(buyer))
	assert.Empty(t, tm.recorder.Events())
}
