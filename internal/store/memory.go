package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// ledger is the plain data held by the memory store. Records are stored by
// value so a shallow map copy is a full snapshot.
type ledger struct {
	listings       map[uint64]domain.Listing
	auctions       map[uint64]domain.Auction
	offers         map[uint64]domain.Offer
	sales          map[uint64]domain.Sale
	activeListings map[string]uint64
	activeAuctions map[string]uint64
	stats          domain.Stats
	settings       domain.Settings
	balances       map[domain.Address]uint64
	escrow         uint64
	nextIDs        counters
}

type counters struct {
	listing uint64
	auction uint64
	offer   uint64
	sale    uint64
}

func newLedger() *ledger {
	return &ledger{
		listings:       make(map[uint64]domain.Listing),
		auctions:       make(map[uint64]domain.Auction),
		offers:         make(map[uint64]domain.Offer),
		sales:          make(map[uint64]domain.Sale),
		activeListings: make(map[string]uint64),
		activeAuctions: make(map[string]uint64),
		settings:       domain.DefaultSettings(),
		balances:       make(map[domain.Address]uint64),
	}
}

func (l *ledger) clone() *ledger {
	c := &ledger{
		listings:       make(map[uint64]domain.Listing, len(l.listings)),
		auctions:       make(map[uint64]domain.Auction, len(l.auctions)),
		offers:         make(map[uint64]domain.Offer, len(l.offers)),
		sales:          make(map[uint64]domain.Sale, len(l.sales)),
		activeListings: make(map[string]uint64, len(l.activeListings)),
		activeAuctions: make(map[string]uint64, len(l.activeAuctions)),
		stats:          l.stats,
		settings:       l.settings,
		balances:       make(map[domain.Address]uint64, len(l.balances)),
		escrow:         l.escrow,
		nextIDs:        l.nextIDs,
	}
	for k, v := range l.balances {
		c.balances[k] = v
	}
	for k, v := range l.listings {
		c.listings[k] = v
	}
	for k, v := range l.auctions {
		c.auctions[k] = copyAuction(v)
	}
	for k, v := range l.offers {
		c.offers[k] = v
	}
	for k, v := range l.sales {
		c.sales[k] = v
	}
	for k, v := range l.activeListings {
		c.activeListings[k] = v
	}
	for k, v := range l.activeAuctions {
		c.activeAuctions[k] = v
	}
	return c
}

// copyAuction detaches the bidder pointer from the caller's value
func copyAuction(a domain.Auction) domain.Auction {
	if a.CurrentBidder != nil {
		bidder := *a.CurrentBidder
		a.CurrentBidder = &bidder
	}
	return a
}

type memoryStore struct {
	mu   *sync.RWMutex
	data **ledger
	// inTx is set on the view handed to Transaction callbacks; the lock is already held
	inTx bool
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore() Store {
	data := newLedger()
	return &memoryStore{mu: &sync.RWMutex{}, data: &data}
}

// Transaction snapshots the ledger and restores it when fn fails
func (s *memoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.data).clone()
	tx := &memoryStore{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

func (s *memoryStore) read(fn func(l *ledger) error) error {
	if !s.inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(*s.data)
}

func (s *memoryStore) write(fn func(l *ledger) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.data)
}

func (s *memoryStore) CreateListing(ctx context.Context, listing *domain.Listing) error {
	return s.write(func(l *ledger) error {
		l.nextIDs.listing++
		listing.ID = l.nextIDs.listing
		l.listings[listing.ID] = *listing
		return nil
	})
}

func (s *memoryStore) GetListing(ctx context.Context, id uint64) (*domain.Listing, error) {
	var out domain.Listing
	err := s.read(func(l *ledger) error {
		v, ok := l.listings[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrListingNotFound, id)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memoryStore) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	return s.write(func(l *ledger) error {
		if _, ok := l.listings[listing.ID]; !ok {
			return fmt.Errorf("%w: %d", domain.ErrListingNotFound, listing.ID)
		}
		l.listings[listing.ID] = *listing
		return nil
	})
}

func (s *memoryStore) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	return s.write(func(l *ledger) error {
		l.nextIDs.auction++
		auction.ID = l.nextIDs.auction
		l.auctions[auction.ID] = copyAuction(*auction)
		return nil
	})
}

func (s *memoryStore) GetAuction(ctx context.Context, id uint64) (*domain.Auction, error) {
	var out domain.Auction
	err := s.read(func(l *ledger) error {
		v, ok := l.auctions[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrAuctionNotFound, id)
		}
		out = copyAuction(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memoryStore) UpdateAuction(ctx context.Context, auction *domain.Auction) error {
	return s.write(func(l *ledger) error {
		if _, ok := l.auctions[auction.ID]; !ok {
			return fmt.Errorf("%w: %d", domain.ErrAuctionNotFound, auction.ID)
		}
		l.auctions[auction.ID] = copyAuction(*auction)
		return nil
	})
}

func (s *memoryStore) ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	err := s.read(func(l *ledger) error {
		for id, a := range l.auctions {
			if a.Active && !a.Ended && !now.Before(a.EndTime) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, err
}

func (s *memoryStore) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	return s.write(func(l *ledger) error {
		l.nextIDs.offer++
		offer.ID = l.nextIDs.offer
		l.offers[offer.ID] = *offer
		return nil
	})
}

func (s *memoryStore) GetOffer(ctx context.Context, id uint64) (*domain.Offer, error) {
	var out domain.Offer
	err := s.read(func(l *ledger) error {
		v, ok := l.offers[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrOfferNotFound, id)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memoryStore) UpdateOffer(ctx context.Context, offer *domain.Offer) error {
	return s.write(func(l *ledger) error {
		if _, ok := l.offers[offer.ID]; !ok {
			return fmt.Errorf("%w: %d", domain.ErrOfferNotFound, offer.ID)
		}
		l.offers[offer.ID] = *offer
		return nil
	})
}

func (s *memoryStore) CreateSale(ctx context.Context, sale *domain.Sale) error {
	return s.write(func(l *ledger) error {
		l.nextIDs.sale++
		sale.ID = l.nextIDs.sale
		l.sales[sale.ID] = *sale
		return nil
	})
}

func (s *memoryStore) GetSale(ctx context.Context, id uint64) (*domain.Sale, error) {
	var out domain.Sale
	err := s.read(func(l *ledger) error {
		v, ok := l.sales[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrSaleNotFound, id)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memoryStore) ListSalesByAsset(ctx context.Context, asset domain.AssetRef) ([]domain.Sale, error) {
	var out []domain.Sale
	err := s.read(func(l *ledger) error {
		key := asset.Key()
		for _, sale := range l.sales {
			if sale.Asset.Key() == key {
				out = append(out, sale)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (s *memoryStore) ActiveListingID(ctx context.Context, asset domain.AssetRef) (uint64, error) {
	var id uint64
	err := s.read(func(l *ledger) error {
		id = l.activeListings[asset.Key()]
		return nil
	})
	return id, err
}

func (s *memoryStore) SetActiveListing(ctx context.Context, asset domain.AssetRef, id uint64) error {
	return s.write(func(l *ledger) error {
		setIndex(l.activeListings, asset, id)
		return nil
	})
}

func (s *memoryStore) ActiveAuctionID(ctx context.Context, asset domain.AssetRef) (uint64, error) {
	var id uint64
	err := s.read(func(l *ledger) error {
		id = l.activeAuctions[asset.Key()]
		return nil
	})
	return id, err
}

func (s *memoryStore) SetActiveAuction(ctx context.Context, asset domain.AssetRef, id uint64) error {
	return s.write(func(l *ledger) error {
		setIndex(l.activeAuctions, asset, id)
		return nil
	})
}

func setIndex(index map[string]uint64, asset domain.AssetRef, id uint64) {
	if id == 0 {
		delete(index, asset.Key())
		return
	}
	index[asset.Key()] = id
}

func (s *memoryStore) GetStats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	err := s.read(func(l *ledger) error {
		out = l.stats
		return nil
	})
	return &out, err
}

func (s *memoryStore) SaveStats(ctx context.Context, stats *domain.Stats) error {
	return s.write(func(l *ledger) error {
		l.stats = *stats
		return nil
	})
}

func (s *memoryStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var out domain.Settings
	err := s.read(func(l *ledger) error {
		out = l.settings
		return nil
	})
	return &out, err
}

func (s *memoryStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	return s.write(func(l *ledger) error {
		l.settings = *settings
		return nil
	})
}

func (s *memoryStore) GetBalance(ctx context.Context, addr domain.Address) (uint64, error) {
	var out uint64
	err := s.read(func(l *ledger) error {
		out = l.balances[balanceKey(addr)]
		return nil
	})
	return out, err
}

func (s *memoryStore) SaveBalance(ctx context.Context, addr domain.Address, amount uint64) error {
	return s.write(func(l *ledger) error {
		if amount == 0 {
			delete(l.balances, balanceKey(addr))
			return nil
		}
		l.balances[balanceKey(addr)] = amount
		return nil
	})
}

func (s *memoryStore) GetEscrow(ctx context.Context) (uint64, error) {
	var out uint64
	err := s.read(func(l *ledger) error {
		out = l.escrow
		return nil
	})
	return out, err
}

func (s *memoryStore) SaveEscrow(ctx context.Context, amount uint64) error {
	return s.write(func(l *ledger) error {
		l.escrow = amount
		return nil
	})
}
