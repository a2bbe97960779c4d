package market

import (
	"context"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/settlement"
)

// CreateListing lists an asset owned by seller at a fixed price
func (m *Market) CreateListing(ctx context.Context, seller domain.Address, ref domain.AssetRef, price uint64, royaltyBp uint16, royaltyRecipient domain.Address) (*domain.Listing, error) {
	if price == 0 {
		return nil, domain.ErrInvalidPrice
	}
	if err := domain.ValidateRoyalty(royaltyBp, royaltyRecipient); err != nil {
		return nil, err
	}
	if err := validateAsset(ref); err != nil {
		return nil, err
	}

	var listing *domain.Listing
	err := m.run(ctx, "create_listing", func(op *operation) error {
		if err := m.checkSellable(op.ctx, ref, seller); err != nil {
			return err
		}
		if err := checkNotTrading(op, ref); err != nil {
			return err
		}

		listing = &domain.Listing{
			Seller:           seller,
			Asset:            ref,
			Price:            price,
			RoyaltyBp:        royaltyBp,
			RoyaltyRecipient: royaltyRecipient,
			Active:           true,
			ListedAt:         op.now,
		}
		if err := op.tx.CreateListing(op.ctx, listing); err != nil {
			return err
		}
		if err := op.tx.SetActiveListing(op.ctx, ref, listing.ID); err != nil {
			return err
		}

		stats, err := op.tx.GetStats(op.ctx)
		if err != nil {
			return err
		}
		stats.TotalListings++
		if err := op.tx.SaveStats(op.ctx, stats); err != nil {
			return err
		}

		op.emit(domain.Event{
			Type:     domain.EventTypeListingCreated,
			RecordID: listing.ID,
			Asset:    &listing.Asset,
			Actor:    seller,
			Amount:   price,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// CancelListing withdraws an active listing; only its seller may cancel it
func (m *Market) CancelListing(ctx context.Context, id uint64, caller domain.Address) error {
	return m.run(ctx, "cancel_listing", func(op *operation) error {
		listing, err := op.tx.GetListing(op.ctx, id)
		if err != nil {
			return err
		}
		if !listing.Active {
			return domain.ErrNotActive
		}
		if !listing.Seller.Equal(caller) {
			return domain.ErrNotSeller
		}

		if err := deactivateListing(op, listing); err != nil {
			return err
		}

		op.emit(domain.Event{
			Type:     domain.EventTypeListingCancelled,
			RecordID: listing.ID,
			Asset:    &listing.Asset,
			Actor:    caller,
		})
		return nil
	})
}

// BuyListing purchases an active listing. paid may exceed the price; the
// difference is refunded after settlement.
func (m *Market) BuyListing(ctx context.Context, id uint64, caller domain.Address, paid uint64) (*domain.Sale, error) {
	var sale *domain.Sale
	err := m.run(ctx, "buy_listing", func(op *operation) error {
		listing, err := op.tx.GetListing(op.ctx, id)
		if err != nil {
			return err
		}
		if !listing.Active {
			return domain.ErrNotActive
		}
		if paid < listing.Price {
			return domain.ErrInsufficientPayment
		}
		if listing.Seller.Equal(caller) {
			return domain.ErrSelfPurchase
		}

		owner, err := m.gateway.OwnerOf(op.ctx, listing.Asset)
		if err != nil {
			return err
		}
		if !owner.Equal(listing.Seller) {
			return domain.ErrSellerNoLongerOwns
		}

		platformFeeBp, err := m.platformFeeBp(op)
		if err != nil {
			return err
		}
		breakdown, err := settlement.Split(listing.Price, platformFeeBp, listing.RoyaltyBp)
		if err != nil {
			return err
		}

		plan := settlement.NewPlan().
			Collect(caller, paid).
			TransferAsset(listing.Asset, listing.Seller, caller).
			Settle(breakdown, listing.Seller, listing.RoyaltyRecipient).
			Pay(caller, paid-listing.Price)

		return m.execute(op, plan, func() error {
			if err := deactivateListing(op, listing); err != nil {
				return err
			}

			sale = &domain.Sale{
				Seller:           listing.Seller,
				Buyer:            caller,
				Asset:            listing.Asset,
				RoyaltyRecipient: listing.RoyaltyRecipient,
				Source:           domain.SaleSourceListing,
				SourceID:         listing.ID,
			}
			if err := recordSale(op, sale, breakdown); err != nil {
				return err
			}

			op.emit(domain.Event{
				Type:         domain.EventTypeListingSold,
				RecordID:     listing.ID,
				Asset:        &listing.Asset,
				Actor:        listing.Seller,
				Counterparty: caller,
				Amount:       listing.Price,
				SaleID:       sale.ID,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// deactivateListing flips the listing inactive and clears the asset index
func deactivateListing(op *operation, listing *domain.Listing) error {
	listing.Active = false
	if err := op.tx.UpdateListing(op.ctx, listing); err != nil {
		return err
	}
	return op.tx.SetActiveListing(op.ctx, listing.Asset, 0)
}
