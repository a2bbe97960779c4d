package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var (
	testSeller    = domain.MustAddress("0x00000000000000000000000000000000000000a1")
	testBuyer     = domain.MustAddress("0x00000000000000000000000000000000000000b1")
	testRecipient = domain.MustAddress("0x00000000000000000000000000000000000000c1")
	testContract  = domain.MustAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
)

func testAsset(tokenID string) domain.AssetRef {
	return domain.AssetRef{Contract: testContract, TokenID: tokenID}
}

func testTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// buildTestListing creates an active listing for the given token
func buildTestListing(tokenID string, price uint64) *domain.Listing {
	return &domain.Listing{
		Seller:           testSeller,
		Asset:            testAsset(tokenID),
		Price:            price,
		RoyaltyBp:        500,
		RoyaltyRecipient: testRecipient,
		Active:           true,
		ListedAt:         testTime(),
	}
}

// buildTestAuction creates an active auction without bids
func buildTestAuction(tokenID string, startPrice uint64) *domain.Auction {
	return &domain.Auction{
		Seller:           testSeller,
		Asset:            testAsset(tokenID),
		StartPrice:       startPrice,
		EndTime:          testTime().Add(24 * time.Hour),
		RoyaltyBp:        1000,
		RoyaltyRecipient: testRecipient,
		Active:           true,
		CreatedAt:        testTime(),
	}
}

// buildTestOffer creates an active offer
func buildTestOffer(tokenID string, price uint64) *domain.Offer {
	return &domain.Offer{
		Buyer:     testBuyer,
		Asset:     testAsset(tokenID),
		Price:     price,
		ExpiresAt: testTime().Add(48 * time.Hour),
		Active:    true,
		CreatedAt: testTime(),
	}
}

// buildTestSale creates a sale whose parts add up to the price
func buildTestSale(tokenID string, sourceID uint64) *domain.Sale {
	return &domain.Sale{
		Seller:           testSeller,
		Buyer:            testBuyer,
		Asset:            testAsset(tokenID),
		Price:            100,
		PlatformFee:      2,
		RoyaltyFee:       5,
		RoyaltyRecipient: testRecipient,
		SellerProceeds:   93,
		Source:           domain.SaleSourceListing,
		SourceID:         sourceID,
		Timestamp:        testTime(),
	}
}

// =============================================================================
// Tests
// =============================================================================

func testListings(t *testing.T, store Store) {
	ctx := context.Background()

	first := buildTestListing("1", 100)
	require.NoError(t, store.CreateListing(ctx, first))
	assert.NotZero(t, first.ID)

	second := buildTestListing("2", 200)
	require.NoError(t, store.CreateListing(ctx, second))
	assert.Greater(t, second.ID, first.ID)

	got, err := store.GetListing(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Mutating the returned copy must not reach the store
	got.Active = false
	again, err := store.GetListing(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, again.Active)

	require.NoError(t, store.UpdateListing(ctx, got))
	again, err = store.GetListing(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)

	_, err = store.GetListing(ctx, second.ID+1000)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	missing := buildTestListing("3", 1)
	missing.ID = second.ID + 1000
	assert.ErrorIs(t, store.UpdateListing(ctx, missing), domain.ErrListingNotFound)
}

func testAuctions(t *testing.T, store Store) {
	ctx := context.Background()

	auction := buildTestAuction("10", 10_000)
	require.NoError(t, store.CreateAuction(ctx, auction))
	assert.NotZero(t, auction.ID)

	got, err := store.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	assert.False(t, got.HasBid())
	assert.Nil(t, got.CurrentBidder)

	bidder := testBuyer
	got.CurrentBid = 10_500
	got.CurrentBidder = &bidder
	require.NoError(t, store.UpdateAuction(ctx, got))

	// The stored bidder must not alias the caller's pointer
	bidder = testSeller

	again, err := store.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.NotNil(t, again.CurrentBidder)
	assert.Equal(t, testBuyer, *again.CurrentBidder)
	assert.Equal(t, uint64(10_500), again.CurrentBid)

	again.Active = false
	again.Ended = true
	require.NoError(t, store.UpdateAuction(ctx, again))

	ended, err := store.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	assert.False(t, ended.Active)
	assert.True(t, ended.Ended)

	_, err = store.GetAuction(ctx, auction.ID+1000)
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func testExpiredAuctions(t *testing.T, store Store) {
	ctx := context.Background()

	early := buildTestAuction("30", 1_000)
	early.EndTime = testTime().Add(time.Hour)
	require.NoError(t, store.CreateAuction(ctx, early))

	late := buildTestAuction("31", 1_000)
	require.NoError(t, store.CreateAuction(ctx, late))

	ended := buildTestAuction("32", 1_000)
	ended.EndTime = testTime().Add(time.Hour)
	require.NoError(t, store.CreateAuction(ctx, ended))
	ended.Active = false
	ended.Ended = true
	require.NoError(t, store.UpdateAuction(ctx, ended))

	pending := buildTestAuction("33", 1_000)
	pending.EndTime = testTime().Add(48 * time.Hour)
	require.NoError(t, store.CreateAuction(ctx, pending))

	ids, err := store.ListExpiredAuctionIDs(ctx, testTime(), 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// End time is inclusive
	ids, err = store.ListExpiredAuctionIDs(ctx, testTime().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{early.ID}, ids)

	ids, err = store.ListExpiredAuctionIDs(ctx, testTime().Add(25*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{early.ID, late.ID}, ids)

	ids, err = store.ListExpiredAuctionIDs(ctx, testTime().Add(25*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{early.ID}, ids)
}

func testOffers(t *testing.T, store Store) {
	ctx := context.Background()

	offer := buildTestOffer("20", 500)
	require.NoError(t, store.CreateOffer(ctx, offer))

	got, err := store.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, offer, got)

	got.Active = false
	require.NoError(t, store.UpdateOffer(ctx, got))

	again, err := store.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)

	_, err = store.GetOffer(ctx, offer.ID+1000)
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)
}

func testSales(t *testing.T, store Store) {
	ctx := context.Background()

	first := buildTestSale("30", 1)
	require.NoError(t, store.CreateSale(ctx, first))
	second := buildTestSale("30", 2)
	require.NoError(t, store.CreateSale(ctx, second))
	other := buildTestSale("31", 3)
	require.NoError(t, store.CreateSale(ctx, other))

	got, err := store.GetSale(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, got.Price, got.PlatformFee+got.RoyaltyFee+got.SellerProceeds)

	sales, err := store.ListSalesByAsset(ctx, testAsset("30"))
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, first.ID, sales[0].ID)
	assert.Equal(t, second.ID, sales[1].ID)

	none, err := store.ListSalesByAsset(ctx, testAsset("99"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.GetSale(ctx, other.ID+1000)
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func testActiveIndex(t *testing.T, store Store) {
	ctx := context.Background()
	asset := testAsset("40")

	id, err := store.ActiveListingID(ctx, asset)
	require.NoError(t, err)
	assert.Zero(t, id)

	require.NoError(t, store.SetActiveListing(ctx, asset, 7))
	id, err = store.ActiveListingID(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	// Listing and auction indices are independent
	id, err = store.ActiveAuctionID(ctx, asset)
	require.NoError(t, err)
	assert.Zero(t, id)

	require.NoError(t, store.SetActiveListing(ctx, asset, 8))
	id, err = store.ActiveListingID(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), id)

	require.NoError(t, store.SetActiveListing(ctx, asset, 0))
	id, err = store.ActiveListingID(ctx, asset)
	require.NoError(t, err)
	assert.Zero(t, id)

	require.NoError(t, store.SetActiveAuction(ctx, asset, 3))
	id, err = store.ActiveAuctionID(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)

	// Clearing an empty index is a no-op
	require.NoError(t, store.SetActiveAuction(ctx, testAsset("41"), 0))
}

func testStatsAndSettings(t *testing.T, store Store) {
	ctx := context.Background()

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *settings)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, *stats)

	stats.TotalListings = 3
	stats.TotalSales = 1
	stats.TotalVolume = 100
	stats.AccumulatedPlatformFees = 2
	require.NoError(t, store.SaveStats(ctx, stats))

	got, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	settings.PlatformFeeBp = 1000
	settings.PlatformContract = testRecipient
	require.NoError(t, store.SaveSettings(ctx, settings))

	gotSettings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, gotSettings)
}

func testTransaction(t *testing.T, store Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	var committed *domain.Listing
	err := store.Transaction(ctx, func(tx Store) error {
		committed = buildTestListing("50", 100)
		if err := tx.CreateListing(ctx, committed); err != nil {
			return err
		}
		return tx.SetActiveListing(ctx, committed.Asset, committed.ID)
	})
	require.NoError(t, err)

	id, err := store.ActiveListingID(ctx, testAsset("50"))
	require.NoError(t, err)
	assert.Equal(t, committed.ID, id)

	var rolledBack *domain.Listing
	err = store.Transaction(ctx, func(tx Store) error {
		rolledBack = buildTestListing("51", 100)
		if err := tx.CreateListing(ctx, rolledBack); err != nil {
			return err
		}
		if err := tx.SetActiveListing(ctx, rolledBack.Asset, rolledBack.ID); err != nil {
			return err
		}
		if err := tx.SaveStats(ctx, &domain.Stats{TotalListings: 99}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	_, err = store.GetListing(ctx, rolledBack.ID)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	id, err = store.ActiveListingID(ctx, testAsset("51"))
	require.NoError(t, err)
	assert.Zero(t, id)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uint64(99), stats.TotalListings)

	// Nested transactions join the outer one
	err = store.Transaction(ctx, func(tx Store) error {
		return tx.Transaction(ctx, func(inner Store) error {
			return inner.SaveSettings(ctx, &domain.Settings{PlatformFeeBp: 100, PlatformContract: domain.ZeroAddress})
		})
	})
	require.NoError(t, err)

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), settings.PlatformFeeBp)
}

func testBalances(t *testing.T, store Store) {
	ctx := context.Background()

	balance, err := store.GetBalance(ctx, testBuyer)
	require.NoError(t, err)
	assert.Zero(t, balance)
	escrow, err := store.GetEscrow(ctx)
	require.NoError(t, err)
	assert.Zero(t, escrow)

	require.NoError(t, store.SaveBalance(ctx, testBuyer, math.MaxUint64))
	require.NoError(t, store.SaveBalance(ctx, testSeller, 40))
	require.NoError(t, store.SaveEscrow(ctx, 60))

	balance, err = store.GetBalance(ctx, testBuyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), balance)
	escrow, err = store.GetEscrow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), escrow)

	// Lowercase spelling reaches the same account
	lower := domain.Address(strings.ToLower(testSeller.String()))
	require.NoError(t, store.SaveBalance(ctx, lower, 0))
	balance, err = store.GetBalance(ctx, testSeller)
	require.NoError(t, err)
	assert.Zero(t, balance)

	errBoom := errors.New("boom")
	err = store.Transaction(ctx, func(tx Store) error {
		if err := tx.SaveBalance(ctx, testBuyer, 1); err != nil {
			return err
		}
		if err := tx.SaveEscrow(ctx, 0); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	balance, err = store.GetBalance(ctx, testBuyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), balance)
	escrow, err = store.GetEscrow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), escrow)
}

// RunStoreTests runs the shared suite against a store implementation.
// initDB returns a fresh store for each subtest and registers its own cleanup.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Listings", testListings},
		{"Auctions", testAuctions},
		{"ExpiredAuctions", testExpiredAuctions},
		{"Offers", testOffers},
		{"Sales", testSales},
		{"ActiveIndex", testActiveIndex},
		{"StatsAndSettings", testStatsAndSettings},
		{"Transaction", testTransaction},
		{"Balances", testBalances},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}
