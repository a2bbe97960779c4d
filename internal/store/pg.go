package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/store/schema"
)

const (
	indexKindListing = "listing"
	indexKindAuction = "auction"
)

type pgStore struct {
	db *gorm.DB
	// inTx marks a store bound to an open transaction; reads lock rows FOR UPDATE
	inTx bool
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 10
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 10
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Transaction runs fn inside a database transaction (a savepoint when already in one)
func (s *pgStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx, inTx: true})
	})
}

// query returns a session for ctx; inside a transaction selected rows are locked
func (s *pgStore) query(ctx context.Context) *gorm.DB {
	db := s.db.WithContext(ctx)
	if s.inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (s *pgStore) CreateListing(ctx context.Context, listing *domain.Listing) error {
	row := listingRow(listing)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	listing.ID = row.ID
	return nil
}

func (s *pgStore) GetListing(ctx context.Context, id uint64) (*domain.Listing, error) {
	var row schema.Listing
	if err := s.query(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrListingNotFound, id)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listingFromRow(row), nil
}

func (s *pgStore) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	result := s.db.WithContext(ctx).Model(&schema.Listing{}).
		Where("id = ?", listing.ID).
		Updates(map[string]interface{}{
			"active": listing.Active,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", domain.ErrListingNotFound, listing.ID)
	}
	return nil
}

func (s *pgStore) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	row := auctionRow(auction)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}
	auction.ID = row.ID
	return nil
}

func (s *pgStore) GetAuction(ctx context.Context, id uint64) (*domain.Auction, error) {
	var row schema.Auction
	if err := s.query(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrAuctionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auctionFromRow(row), nil
}

func (s *pgStore) UpdateAuction(ctx context.Context, auction *domain.Auction) error {
	var bidder *string
	if auction.CurrentBidder != nil {
		b := auction.CurrentBidder.String()
		bidder = &b
	}

	result := s.db.WithContext(ctx).Model(&schema.Auction{}).
		Where("id = ?", auction.ID).
		Updates(map[string]interface{}{
			"current_bid":    auction.CurrentBid,
			"current_bidder": bidder,
			"active":         auction.Active,
			"ended":          auction.Ended,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update auction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", domain.ErrAuctionNotFound, auction.ID)
	}
	return nil
}

func (s *pgStore) ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Auction{}).
		Where("active = ? AND ended = ? AND end_time <= ?", true, false, now).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ids []uint64
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	return ids, nil
}

func (s *pgStore) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	row := offerRow(offer)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	offer.ID = row.ID
	return nil
}

func (s *pgStore) GetOffer(ctx context.Context, id uint64) (*domain.Offer, error) {
	var row schema.Offer
	if err := s.query(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrOfferNotFound, id)
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offerFromRow(row), nil
}

func (s *pgStore) UpdateOffer(ctx context.Context, offer *domain.Offer) error {
	result := s.db.WithContext(ctx).Model(&schema.Offer{}).
		Where("id = ?", offer.ID).
		Updates(map[string]interface{}{
			"active": offer.Active,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", domain.ErrOfferNotFound, offer.ID)
	}
	return nil
}

func (s *pgStore) CreateSale(ctx context.Context, sale *domain.Sale) error {
	row := saleRow(sale)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	sale.ID = row.ID
	return nil
}

func (s *pgStore) GetSale(ctx context.Context, id uint64) (*domain.Sale, error) {
	var row schema.Sale
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrSaleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return saleFromRow(row), nil
}

func (s *pgStore) ListSalesByAsset(ctx context.Context, asset domain.AssetRef) ([]domain.Sale, error) {
	var rows []schema.Sale
	err := s.db.WithContext(ctx).
		Where("contract_address = ? AND token_number = ?", asset.Contract.String(), asset.TokenID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		sales = append(sales, *saleFromRow(row))
	}
	return sales, nil
}

func (s *pgStore) ActiveListingID(ctx context.Context, asset domain.AssetRef) (uint64, error) {
	return s.activeRecordID(ctx, indexKindListing, asset)
}

func (s *pgStore) SetActiveListing(ctx context.Context, asset domain.AssetRef, id uint64) error {
	return s.setActiveRecord(ctx, indexKindListing, asset, id)
}

func (s *pgStore) ActiveAuctionID(ctx context.Context, asset domain.AssetRef) (uint64, error) {
	return s.activeRecordID(ctx, indexKindAuction, asset)
}

func (s *pgStore) SetActiveAuction(ctx context.Context, asset domain.AssetRef, id uint64) error {
	return s.setActiveRecord(ctx, indexKindAuction, asset, id)
}

func (s *pgStore) activeRecordID(ctx context.Context, kind string, asset domain.AssetRef) (uint64, error) {
	var row schema.ActiveRecord
	err := s.query(ctx).Where("kind = ? AND asset_key = ?", kind, asset.Key()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get active %s: %w", kind, err)
	}
	return row.RecordID, nil
}

func (s *pgStore) setActiveRecord(ctx context.Context, kind string, asset domain.AssetRef, id uint64) error {
	db := s.db.WithContext(ctx)
	if id == 0 {
		if err := db.Where("kind = ? AND asset_key = ?", kind, asset.Key()).Delete(&schema.ActiveRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear active %s: %w", kind, err)
		}
		return nil
	}

	row := schema.ActiveRecord{Kind: kind, AssetKey: asset.Key(), RecordID: id}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "asset_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"record_id"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set active %s: %w", kind, err)
	}
	return nil
}

func (s *pgStore) ledgerState(ctx context.Context) (*schema.LedgerState, error) {
	var row schema.LedgerState
	if err := s.query(ctx).Where("id = ?", schema.LedgerStateID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to get ledger state: %w", err)
	}
	return &row, nil
}

func (s *pgStore) GetStats(ctx context.Context) (*domain.Stats, error) {
	row, err := s.ledgerState(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Stats{
		TotalListings:           row.TotalListings,
		TotalAuctions:           row.TotalAuctions,
		TotalOffers:             row.TotalOffers,
		TotalSales:              row.TotalSales,
		TotalVolume:             row.TotalVolume,
		AccumulatedPlatformFees: row.AccumulatedPlatformFees,
	}, nil
}

func (s *pgStore) SaveStats(ctx context.Context, stats *domain.Stats) error {
	err := s.db.WithContext(ctx).Model(&schema.LedgerState{}).
		Where("id = ?", schema.LedgerStateID).
		Updates(map[string]interface{}{
			"total_listings":            stats.TotalListings,
			"total_auctions":            stats.TotalAuctions,
			"total_offers":              stats.TotalOffers,
			"total_sales":               stats.TotalSales,
			"total_volume":              stats.TotalVolume,
			"accumulated_platform_fees": stats.AccumulatedPlatformFees,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

func (s *pgStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	row, err := s.ledgerState(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Settings{
		PlatformFeeBp:    row.PlatformFeeBp,
		PlatformContract: domain.Address(row.PlatformContract),
	}, nil
}

func (s *pgStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	err := s.db.WithContext(ctx).Model(&schema.LedgerState{}).
		Where("id = ?", schema.LedgerStateID).
		Updates(map[string]interface{}{
			"platform_fee_bp":   settings.PlatformFeeBp,
			"platform_contract": settings.PlatformContract.String(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *pgStore) GetBalance(ctx context.Context, addr domain.Address) (uint64, error) {
	var row schema.Balance
	err := s.query(ctx).Where("address = ?", balanceKey(addr).String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return row.Amount, nil
}

func (s *pgStore) SaveBalance(ctx context.Context, addr domain.Address, amount uint64) error {
	row := schema.Balance{Address: balanceKey(addr).String(), Amount: amount}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"amount": amount, "updated_at": gorm.Expr("now()")}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

func (s *pgStore) GetEscrow(ctx context.Context) (uint64, error) {
	row, err := s.ledgerState(ctx)
	if err != nil {
		return 0, err
	}
	return row.Escrow, nil
}

func (s *pgStore) SaveEscrow(ctx context.Context, amount uint64) error {
	err := s.db.WithContext(ctx).Model(&schema.LedgerState{}).
		Where("id = ?", schema.LedgerStateID).
		Update("escrow", amount).Error
	if err != nil {
		return fmt.Errorf("failed to save escrow: %w", err)
	}
	return nil
}
