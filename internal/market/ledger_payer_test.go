package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/adapter"
	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/events"
	"github.com/feral-file/ff-ticket-market/internal/market"
	"github.com/feral-file/ff-ticket-market/internal/payment"
	"github.com/feral-file/ff-ticket-market/internal/store"
)

// newLedgerMarket builds a market whose balances live in st
func newLedgerMarket(t *testing.T, st store.Store, registry *asset.Registry) (*market.Market, *payment.LedgerPayer) {
	payer := payment.NewLedgerPayer(st)
	m, err := market.New(st, registry, payer, adapter.NewClock(), events.NewRecorder(),
		market.Config{Operator: operator, Market: marketAcc}, registry)
	require.NoError(t, err)
	return m, payer
}

func balanceOf(t *testing.T, p *payment.LedgerPayer, addr domain.Address) uint64 {
	balance, err := p.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return balance
}

func TestLedgerPayer_EscrowSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	registry := newRegistryWithTicket(t, "1", seller)
	ref := domain.AssetRef{Contract: contract, TokenID: "1"}

	m, _ := newLedgerMarket(t, st, registry)
	require.NoError(t, m.Deposit(ctx, operator, buyer, 500))
	offer, err := m.MakeOffer(ctx, buyer, ref, 300, time.Hour)
	require.NoError(t, err)

	// A fresh process over the same ledger refunds the escrowed offer
	restarted, payer := newLedgerMarket(t, st, registry)
	assert.Equal(t, uint64(200), balanceOf(t, payer, buyer))

	require.NoError(t, restarted.CancelOffer(ctx, offer.ID, buyer))
	assert.Equal(t, uint64(500), balanceOf(t, payer, buyer))
	escrow, err := payer.Escrow(ctx)
	require.NoError(t, err)
	assert.Zero(t, escrow)
}

func TestLedgerPayer_FailedBidRollsBackRefund(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	registry := newRegistryWithTicket(t, "1", seller)
	ref := domain.AssetRef{Contract: contract, TokenID: "1"}

	m, payer := newLedgerMarket(t, st, registry)
	require.NoError(t, m.Deposit(ctx, operator, bidder1, 300))
	require.NoError(t, m.Deposit(ctx, operator, bidder2, 350))

	auction, err := m.CreateAuction(ctx, seller, ref, 100, time.Hour, 0, seller)
	require.NoError(t, err)
	_, err = m.PlaceBid(ctx, auction.ID, bidder1, 300)
	require.NoError(t, err)

	// The refund to bidder1 runs before bidder2's funds are found short
	_, err = m.PlaceBid(ctx, auction.ID, bidder2, 400)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Zero(t, balanceOf(t, payer, bidder1))
	assert.Equal(t, uint64(350), balanceOf(t, payer, bidder2))
	escrow, err := payer.Escrow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), escrow)

	got, err := m.Auction(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), got.CurrentBid)
	require.NotNil(t, got.CurrentBidder)
	assert.Equal(t, bidder1, *got.CurrentBidder)
}
