package market

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-market/internal/adapter"
	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/events"
	"github.com/feral-file/ff-ticket-market/internal/logger"
	"github.com/feral-file/ff-ticket-market/internal/payment"
	"github.com/feral-file/ff-ticket-market/internal/settlement"
	"github.com/feral-file/ff-ticket-market/internal/store"
)

// Savepointer is an external participant whose effects can be undone when an
// operation fails after it has already been called
type Savepointer interface {
	Savepoint() func()
}

// RoyaltyPolicy decides the royalty applied when an offer is accepted
type RoyaltyPolicy interface {
	OfferRoyalty(ctx context.Context, ref domain.AssetRef, seller domain.Address) (bp uint16, recipient domain.Address, err error)
}

// FixedRoyalty applies the same rate to every accepted offer.
// A zero Recipient pays the royalty to the accepting seller.
type FixedRoyalty struct {
	Bp        uint16
	Recipient domain.Address
}

func (f FixedRoyalty) OfferRoyalty(ctx context.Context, ref domain.AssetRef, seller domain.Address) (uint16, domain.Address, error) {
	if f.Recipient.IsZero() {
		return f.Bp, seller, nil
	}
	return f.Bp, f.Recipient, nil
}

// Config holds the market identities and policies
type Config struct {
	// Operator is the admin identity and the recipient of withdrawn platform fees
	Operator domain.Address
	// Market is the address the asset gateway transfers from; sellers approve it
	Market domain.Address
	// OfferRoyalty defaults to FixedRoyalty{Bp: DefaultOfferRoyaltyBp}
	OfferRoyalty RoyaltyPolicy
}

// Market is the settlement engine for listings, auctions and offers.
// Operations are totally ordered; each runs as one atomic unit.
type Market struct {
	mu           sync.Mutex
	store        store.Store
	gateway      asset.Gateway
	payer        payment.Payer
	clock        adapter.Clock
	sink         events.Sink
	config       Config
	participants []Savepointer
}

// New creates a market. Participants are snapshotted before every operation
// and restored if it fails.
func New(st store.Store, gw asset.Gateway, payer payment.Payer, clock adapter.Clock, sink events.Sink, cfg Config, participants ...Savepointer) (*Market, error) {
	if !cfg.Operator.Valid() {
		return nil, fmt.Errorf("operator: %w", domain.ErrInvalidAddress)
	}
	if !cfg.Market.Valid() {
		return nil, fmt.Errorf("market: %w", domain.ErrInvalidAddress)
	}
	if cfg.OfferRoyalty == nil {
		cfg.OfferRoyalty = FixedRoyalty{Bp: domain.DefaultOfferRoyaltyBp}
	}

	return &Market{
		store:        st,
		gateway:      gw,
		payer:        payer,
		clock:        clock,
		sink:         sink,
		config:       cfg,
		participants: participants,
	}, nil
}

// operation carries the state of one atomic unit
type operation struct {
	ctx    context.Context
	tx     store.Store
	now    time.Time
	events []domain.Event
}

func (op *operation) emit(event domain.Event) {
	event.ID = domain.NewEventID(op.now)
	event.Timestamp = op.now
	op.events = append(op.events, event)
}

// execute commits the state effects and then runs the plan's interactions
func (m *Market) execute(op *operation, plan *settlement.Plan, effects func() error) error {
	committed, err := plan.Commit(effects)
	if err != nil {
		return err
	}
	return committed.Execute(op.ctx, m.gateway, m.payerFor(op))
}

// payerFor scopes a store-backed payer to the transaction of op
func (m *Market) payerFor(op *operation) payment.Payer {
	if binder, ok := m.payer.(payment.Binder); ok {
		return binder.Bind(op.tx)
	}
	return m.payer
}

// run executes fn as one atomic unit. Store writes, external participants and
// buffered events are all discarded when fn fails; events are dispatched only
// after the transaction commits.
func (m *Market) run(ctx context.Context, name string, fn func(op *operation) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx = logger.WithFields(ctx, zap.String("operation", name))

	restores := make([]func(), 0, len(m.participants))
	for _, p := range m.participants {
		restores = append(restores, p.Savepoint())
	}

	op := &operation{ctx: ctx, now: m.clock.Now()}
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		op.tx = tx
		return fn(op)
	})
	if err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}

		kind := domain.KindOf(err)
		if kind == domain.KindInternal {
			logger.ErrorCtx(ctx, fmt.Errorf("operation failed: %w", err))
		} else {
			logger.DebugCtx(ctx, "Operation rejected", zap.String("kind", string(kind)), zap.Error(err))
		}
		return err
	}

	logger.InfoCtx(ctx, "Operation committed", zap.Int("events", len(op.events)))
	if m.sink != nil {
		m.sink.Dispatch(ctx, op.events)
	}
	return nil
}

// checkSellable verifies seller owns the asset and has authorized the market
func (m *Market) checkSellable(ctx context.Context, ref domain.AssetRef, seller domain.Address) error {
	owner, err := m.gateway.OwnerOf(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to get owner of %s: %w", ref, err)
	}
	if !owner.Equal(seller) {
		return domain.ErrNotOwner
	}

	ok, err := asset.Authorized(ctx, m.gateway, ref, seller, m.config.Market)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotApproved
	}
	return nil
}

// checkNotTrading rejects assets that already have an active listing or auction
func checkNotTrading(op *operation, ref domain.AssetRef) error {
	listingID, err := op.tx.ActiveListingID(op.ctx, ref)
	if err != nil {
		return err
	}
	if listingID != 0 {
		return domain.ErrAlreadyListed
	}

	auctionID, err := op.tx.ActiveAuctionID(op.ctx, ref)
	if err != nil {
		return err
	}
	if auctionID != 0 {
		return domain.ErrAlreadyInAuction
	}
	return nil
}

func validateAsset(ref domain.AssetRef) error {
	if !ref.Contract.Valid() {
		return domain.ErrInvalidAddress
	}
	if !ref.Canonical() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTokenID, ref.TokenID)
	}
	return nil
}

// recordSale appends the sale and updates the sale totals
func recordSale(op *operation, sale *domain.Sale, b settlement.Breakdown) error {
	sale.Price = b.Price
	sale.PlatformFee = b.PlatformFee
	sale.RoyaltyFee = b.RoyaltyFee
	sale.SellerProceeds = b.SellerProceeds
	sale.Timestamp = op.now

	if err := op.tx.CreateSale(op.ctx, sale); err != nil {
		return err
	}

	stats, err := op.tx.GetStats(op.ctx)
	if err != nil {
		return err
	}
	if stats.TotalVolume > math.MaxUint64-b.Price {
		return fmt.Errorf("%w: total volume", domain.ErrAmountOverflow)
	}
	if stats.AccumulatedPlatformFees > math.MaxUint64-b.PlatformFee {
		return fmt.Errorf("%w: accumulated platform fees", domain.ErrAmountOverflow)
	}
	stats.TotalSales++
	stats.TotalVolume += b.Price
	stats.AccumulatedPlatformFees += b.PlatformFee
	return op.tx.SaveStats(op.ctx, stats)
}

func (m *Market) platformFeeBp(op *operation) (uint16, error) {
	settings, err := op.tx.GetSettings(op.ctx)
	if err != nil {
		return 0, err
	}
	return settings.PlatformFeeBp, nil
}

// Listing returns a listing by id
func (m *Market) Listing(ctx context.Context, id uint64) (*domain.Listing, error) {
	return m.store.GetListing(ctx, id)
}

// Auction returns an auction by id
func (m *Market) Auction(ctx context.Context, id uint64) (*domain.Auction, error) {
	return m.store.GetAuction(ctx, id)
}

// Offer returns an offer by id
func (m *Market) Offer(ctx context.Context, id uint64) (*domain.Offer, error) {
	return m.store.GetOffer(ctx, id)
}

// Sale returns a sale by id
func (m *Market) Sale(ctx context.Context, id uint64) (*domain.Sale, error) {
	return m.store.GetSale(ctx, id)
}

// SalesByAsset returns the sale history of an asset
func (m *Market) SalesByAsset(ctx context.Context, ref domain.AssetRef) ([]domain.Sale, error) {
	return m.store.ListSalesByAsset(ctx, ref)
}

// Stats returns the aggregate counters
func (m *Market) Stats(ctx context.Context) (*domain.Stats, error) {
	return m.store.GetStats(ctx)
}

// Settings returns the operator settings
func (m *Market) Settings(ctx context.Context) (*domain.Settings, error) {
	return m.store.GetSettings(ctx)
}

// ActiveListingFor returns the active listing of an asset, or nil
func (m *Market) ActiveListingFor(ctx context.Context, ref domain.AssetRef) (*domain.Listing, error) {
	id, err := m.store.ActiveListingID(ctx, ref)
	if err != nil || id == 0 {
		return nil, err
	}
	return m.store.GetListing(ctx, id)
}

// ActiveAuctionFor returns the active auction of an asset, or nil
func (m *Market) ActiveAuctionFor(ctx context.Context, ref domain.AssetRef) (*domain.Auction, error) {
	id, err := m.store.ActiveAuctionID(ctx, ref)
	if err != nil || id == 0 {
		return nil, err
	}
	return m.store.GetAuction(ctx, id)
}

// MinimumBid returns the lowest bid the auction currently accepts
func (m *Market) MinimumBid(ctx context.Context, auctionID uint64) (uint64, error) {
	auction, err := m.store.GetAuction(ctx, auctionID)
	if err != nil {
		return 0, err
	}
	if !auction.Active {
		return 0, domain.ErrNotActive
	}
	return auction.MinimumBid(), nil
}
