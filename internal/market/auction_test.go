package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/events"
	"github.com/feral-file/ff-ticket-market/internal/market"
	"github.com/feral-file/ff-ticket-market/internal/mocks"
	"github.com/feral-file/ff-ticket-market/internal/store"
)

const auctionDuration = 24 * time.Hour

func TestAuction_BiddingAndSettlement(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "7", seller)
	tm.fund(t, bidder1, 10_000)
	tm.fund(t, bidder2, 10_500)
	total := tm.wallets.Total()

	auction, err := tm.market.CreateAuction(ctx, seller, ref, 10_000, auctionDuration, 1000, creator)
	require.NoError(t, err)
	assert.Equal(t, tm.now.Add(auctionDuration), auction.EndTime)
	assert.False(t, auction.HasBid())

	minBid, err := tm.market.MinimumBid(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), minBid)

	tm.advance(time.Hour)
	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 10_000)
	require.NoError(t, err)
	assert.Zero(t, tm.wallets.Balance(bidder1))
	assert.Equal(t, uint64(10_000), tm.wallets.Escrow())

	minBid, err = tm.market.MinimumBid(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_500), minBid)

	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder2, 10_400)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)

	tm.recorder.Reset()
	updated, err := tm.market.PlaceBid(ctx, auction.ID, bidder2, 10_500)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_500), updated.CurrentBid)
	require.NotNil(t, updated.CurrentBidder)
	assert.Equal(t, bidder2, *updated.CurrentBidder)

	// The outbid bidder is refunded in the same operation
	assert.Equal(t, uint64(10_000), tm.wallets.Balance(bidder1))
	assert.Equal(t, uint64(10_500), tm.wallets.Escrow())
	assert.Equal(t, []domain.EventType{domain.EventTypeBidRefunded, domain.EventTypeBidPlaced}, tm.recorder.Types())
	refunded := tm.recorder.Events()[0]
	assert.Equal(t, bidder1, refunded.Counterparty)
	assert.Equal(t, uint64(10_000), refunded.Amount)

	_, err = tm.market.EndAuction(ctx, auction.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrStillOngoing)

	tm.advance(auctionDuration)
	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 20_000)
	assert.ErrorIs(t, err, domain.ErrExpired)

	tm.recorder.Reset()
	sale, err := tm.market.EndAuction(ctx, auction.ID, stranger)
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, bidder2, sale.Buyer)
	assert.Equal(t, uint64(10_500), sale.Price)
	assert.Equal(t, uint64(262), sale.PlatformFee)
	assert.Equal(t, uint64(1050), sale.RoyaltyFee)
	assert.Equal(t, uint64(9188), sale.SellerProceeds)
	assert.Equal(t, domain.SaleSourceAuction, sale.Source)

	assert.Equal(t, bidder2, tm.ownerOf(t, ref))
	assert.Equal(t, uint64(9188), tm.wallets.Balance(seller))
	assert.Equal(t, uint64(1050), tm.wallets.Balance(creator))
	assert.Equal(t, uint64(262), tm.wallets.Escrow())
	assert.Equal(t, total, tm.wallets.Total())

	ended, err := tm.market.Auction(ctx, auction.ID)
	require.NoError(t, err)
	assert.False(t, ended.Active)
	assert.True(t, ended.Ended)

	active, err := tm.market.ActiveAuctionFor(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.Equal(t, []domain.EventType{domain.EventTypeAuctionEnded}, tm.recorder.Types())
	endedEvent := tm.recorder.Events()[0]
	assert.Equal(t, seller, endedEvent.Actor)
	assert.Equal(t, bidder2, endedEvent.Counterparty)
	assert.Equal(t, sale.ID, endedEvent.SaleID)

	_, err = tm.market.EndAuction(ctx, auction.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrAlreadyEnded)
	_, err = tm.market.MinimumBid(ctx, auction.ID)
	assert.ErrorIs(t, err, domain.ErrNotActive)

	sales, err := tm.market.SalesByAsset(ctx, ref)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.ID, sales[0].ID)
}

func TestEndAuction_WithoutBids(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "7", seller)
	auction, err := tm.market.CreateAuction(ctx, seller, ref, 1_000, time.Hour, 0, seller)
	require.NoError(t, err)

	tm.advance(time.Hour)
	tm.recorder.Reset()
	sale, err := tm.market.EndAuction(ctx, auction.ID, stranger)
	require.NoError(t, err)
	assert.Nil(t, sale)

	assert.Equal(t, seller, tm.ownerOf(t, ref))
	stats := tm.stats(t)
	assert.Equal(t, uint64(1), stats.TotalAuctions)
	assert.Zero(t, stats.TotalSales)

	require.Len(t, tm.recorder.Events(), 1)
	event := tm.recorder.Events()[0]
	assert.Equal(t, domain.EventTypeAuctionEnded, event.Type)
	assert.Equal(t, domain.ZeroAddress, event.Counterparty)
	assert.Zero(t, event.Amount)
	assert.Zero(t, event.SaleID)

	// The asset is free to trade again
	_, err = tm.market.CreateListing(ctx, seller, ref, 500, 0, seller)
	assert.NoError(t, err)
}

func TestCreateAuction_Errors(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "1", seller)
	listed := tm.ticket(t, "2", seller)
	_, err := tm.market.CreateListing(ctx, seller, listed, 100, 0, seller)
	require.NoError(t, err)

	tests := []struct {
		name        string
		caller      domain.Address
		ref         domain.AssetRef
		startPrice  uint64
		duration    time.Duration
		royaltyBp   uint16
		expectedErr error
	}{
		{"zero start price", seller, ref, 0, time.Hour, 0, domain.ErrInvalidPrice},
		{"duration too short", seller, ref, 100, time.Hour - time.Second, 0, domain.ErrInvalidDuration},
		{"duration too long", seller, ref, 100, 30*24*time.Hour + time.Second, 0, domain.ErrInvalidDuration},
		{"royalty above cap", seller, ref, 100, time.Hour, 2001, domain.ErrInvalidRoyalty},
		{"not owner", stranger, ref, 100, time.Hour, 0, domain.ErrNotOwner},
		{"asset listed", seller, listed, 100, time.Hour, 0, domain.ErrAlreadyListed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.market.CreateAuction(ctx, tt.caller, tt.ref, tt.startPrice, tt.duration, tt.royaltyBp, creator)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}

	_, err = tm.market.CreateAuction(ctx, seller, ref, 100, 30*24*time.Hour, 2000, creator)
	require.NoError(t, err)
	_, err = tm.market.CreateAuction(ctx, seller, ref, 100, time.Hour, 0, creator)
	assert.ErrorIs(t, err, domain.ErrAlreadyInAuction)
}

func TestPlaceBid_Errors(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "1", seller)
	tm.fund(t, bidder1, 50)
	auction, err := tm.market.CreateAuction(ctx, seller, ref, 100, time.Hour, 0, creator)
	require.NoError(t, err)

	_, err = tm.market.PlaceBid(ctx, auction.ID, seller, 100)
	assert.ErrorIs(t, err, domain.ErrSelfBid)

	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 99)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)

	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = tm.market.PlaceBid(ctx, auction.ID+1, bidder1, 100)
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)

	got, err := tm.market.Auction(ctx, auction.ID)
	require.NoError(t, err)
	assert.False(t, got.HasBid())
	assert.Equal(t, uint64(50), tm.wallets.Balance(bidder1))
	assert.Zero(t, tm.wallets.Escrow())
}

func TestPlaceBid_FailedRefundRejectsBid(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "1", seller)
	tm.fund(t, bidder1, 1_000)
	tm.fund(t, bidder2, 2_000)
	auction, err := tm.market.CreateAuction(ctx, seller, ref, 1_000, time.Hour, 0, creator)
	require.NoError(t, err)

	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 1_000)
	require.NoError(t, err)

	tm.wallets.Reject(bidder1)
	tm.recorder.Reset()
	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder2, 2_000)
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)

	got, err := tm.market.Auction(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), got.CurrentBid)
	require.NotNil(t, got.CurrentBidder)
	assert.Equal(t, bidder1, *got.CurrentBidder)

	assert.Equal(t, uint64(2_000), tm.wallets.Balance(bidder2))
	assert.Equal(t, uint64(1_000), tm.wallets.Escrow())
	assert.Empty(t, tm.recorder.Events())

	// Once the bidder accepts funds again the higher bid goes through
	tm.wallets.Accept(bidder1)
	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder2, 2_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), tm.wallets.Balance(bidder1))
}

func TestPlaceBid_RefundsBeforeCollecting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()
	payer := mocks.NewMockPayer(ctrl)

	registry := asset.NewRegistry(marketAcc)
	ref, err := domain.NewAssetRef(contract.String(), "1")
	require.NoError(t, err)
	require.NoError(t, registry.Mint(ref, seller))
	registry.SetApprovalForAll(contract, seller, marketAcc, true)

	m, err := market.New(store.NewMemoryStore(), registry, payer, clock, events.NewRecorder(),
		market.Config{Operator: operator, Market: marketAcc}, registry)
	require.NoError(t, err)

	auction, err := m.CreateAuction(ctx, seller, ref, 1_000, time.Hour, 0, creator)
	require.NoError(t, err)

	payer.EXPECT().Collect(gomock.Any(), bidder1, uint64(1_000)).Return(nil)
	_, err = m.PlaceBid(ctx, auction.ID, bidder1, 1_000)
	require.NoError(t, err)

	gomock.InOrder(
		payer.EXPECT().Pay(gomock.Any(), bidder1, uint64(1_000)).Return(nil),
		payer.EXPECT().Collect(gomock.Any(), bidder2, uint64(1_050)).Return(nil),
	)
	_, err = m.PlaceBid(ctx, auction.ID, bidder2, 1_050)
	require.NoError(t, err)
}

func TestEndAuction_SellerNoLongerOwns(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "1", seller)
	tm.fund(t, bidder1, 1_000)
	auction, err := tm.market.CreateAuction(ctx, seller, ref, 1_000, time.Hour, 0, creator)
	require.NoError(t, err)
	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 1_000)
	require.NoError(t, err)

	require.NoError(t, tm.registry.MoveOwnership(ref, seller, stranger))
	tm.advance(time.Hour)

	_, err = tm.market.EndAuction(ctx, auction.ID, bidder1)
	assert.ErrorIs(t, err, domain.ErrSellerNoLongerOwns)

	got, err := tm.market.Auction(ctx, auction.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.False(t, got.Ended)
	assert.Equal(t, uint64(1_000), tm.wallets.Escrow())
}

func TestEndAuction_TransferFailureRollsBack(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "1", seller)
	tm.fund(t, bidder1, 1_000)
	auction, err := tm.market.CreateAuction(ctx, seller, ref, 1_000, time.Hour, 500, creator)
	require.NoError(t, err)
	_, err = tm.market.PlaceBid(ctx, auction.ID, bidder1, 1_000)
	require.NoError(t, err)

	tm.registry.RejectReceiver(bidder1)
	tm.advance(time.Hour)

	_, err = tm.market.EndAuction(ctx, auction.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)

	got, err := tm.market.Auction(ctx, auction.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, seller, tm.ownerOf(t, ref))
	assert.Zero(t, tm.wallets.Balance(seller))
	assert.Equal(t, uint64(1_000), tm.wallets.Escrow())
	assert.Zero(t, tm.stats(t).TotalSales)
}

func TestPlaceBid_Monotonic(t *testing.T) {
	tm := setupTestMarket(t)
	defer tearDownTestMarket(tm)
	ctx := context.Background()

	ref := tm.ticket(t, "1", seller)
	tm.fund(t, bidder1, 1_000_000)
	tm.fund(t, bidder2, 1_000_000)
	total := tm.wallets.Total()

	auction, err := tm.market.CreateAuction(ctx, seller, ref, 1, time.Hour, 0, creator)
	require.NoError(t, err)

	bidders := []domain.Address{bidder1, bidder2}
	var previous uint64
	for i := 0; i < 40; i++ {
		minBid, err := tm.market.MinimumBid(ctx, auction.ID)
		require.NoError(t, err)

		// A bid just under the minimum is always rejected
		if minBid > 1 {
			_, err = tm.market.PlaceBid(ctx, auction.ID, bidders[i%2], minBid-1)
			assert.ErrorIs(t, err, domain.ErrBidTooLow)
		}

		got, err := tm.market.PlaceBid(ctx, auction.ID, bidders[i%2], minBid)
		require.NoError(t, err)
		assert.Greater(t, got.CurrentBid, previous)
		assert.GreaterOrEqual(t, got.CurrentBid, previous+previous/20)
		previous = got.CurrentBid

		// Only the standing bid is escrowed
		assert.Equal(t, got.CurrentBid, tm.wallets.Escrow())
		assert.Equal(t, total, tm.wallets.Total())
	}
}
