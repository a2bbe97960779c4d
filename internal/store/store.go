package store

import (
	"context"
	"time"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Store defines the ledger of listings, auctions, offers, sales and aggregate counters.
//
// Create* methods assign the next monotonically increasing id of the record kind.
// Get* methods return copies; mutations only reach the ledger through Update*.
// Missing records yield the matching domain.Err*NotFound error.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// Transaction runs fn against a transactional view of the store.
	// Every write made through tx is discarded when fn returns an error.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// CreateListing inserts a listing and assigns its id
	CreateListing(ctx context.Context, listing *domain.Listing) error
	// GetListing retrieves a listing by id
	GetListing(ctx context.Context, id uint64) (*domain.Listing, error)
	// UpdateListing persists the mutable fields of a listing
	UpdateListing(ctx context.Context, listing *domain.Listing) error

	// CreateAuction inserts an auction and assigns its id
	CreateAuction(ctx context.Context, auction *domain.Auction) error
	// GetAuction retrieves an auction by id
	GetAuction(ctx context.Context, id uint64) (*domain.Auction, error)
	// UpdateAuction persists the mutable fields of an auction
	UpdateAuction(ctx context.Context, auction *domain.Auction) error
	// ListExpiredAuctionIDs returns up to limit ids of active auctions whose end time has passed, lowest id first
	ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error)

	// CreateOffer inserts an offer and assigns its id
	CreateOffer(ctx context.Context, offer *domain.Offer) error
	// GetOffer retrieves an offer by id
	GetOffer(ctx context.Context, id uint64) (*domain.Offer, error)
	// UpdateOffer persists the mutable fields of an offer
	UpdateOffer(ctx context.Context, offer *domain.Offer) error

	// CreateSale appends an immutable sale record and assigns its id
	CreateSale(ctx context.Context, sale *domain.Sale) error
	// GetSale retrieves a sale by id
	GetSale(ctx context.Context, id uint64) (*domain.Sale, error)
	// ListSalesByAsset returns the sales of an asset, oldest first
	ListSalesByAsset(ctx context.Context, asset domain.AssetRef) ([]domain.Sale, error)

	// ActiveListingID returns the id of the active listing of an asset, or 0
	ActiveListingID(ctx context.Context, asset domain.AssetRef) (uint64, error)
	// SetActiveListing points the asset's active listing index at id; id 0 clears it
	SetActiveListing(ctx context.Context, asset domain.AssetRef, id uint64) error
	// ActiveAuctionID returns the id of the active auction of an asset, or 0
	ActiveAuctionID(ctx context.Context, asset domain.AssetRef) (uint64, error)
	// SetActiveAuction points the asset's active auction index at id; id 0 clears it
	SetActiveAuction(ctx context.Context, asset domain.AssetRef, id uint64) error

	// GetStats returns the aggregate counters
	GetStats(ctx context.Context) (*domain.Stats, error)
	// SaveStats persists the aggregate counters
	SaveStats(ctx context.Context, stats *domain.Stats) error

	// GetSettings returns the operator settings
	GetSettings(ctx context.Context) (*domain.Settings, error)
	// SaveSettings persists the operator settings
	SaveSettings(ctx context.Context, settings *domain.Settings) error

	// GetBalance returns the custodial balance of an account, zero when it has none
	GetBalance(ctx context.Context, addr domain.Address) (uint64, error)
	// SaveBalance persists the custodial balance of an account
	SaveBalance(ctx context.Context, addr domain.Address, amount uint64) error
	// GetEscrow returns the funds held by the market for bids and offers
	GetEscrow(ctx context.Context) (uint64, error)
	// SaveEscrow persists the escrow total
	SaveEscrow(ctx context.Context, amount uint64) error
}
