package market

import (
	"context"
	"time"

	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/settlement"
)

// MakeOffer escrows amount from buyer as an offer on any asset the buyer does not own
func (m *Market) MakeOffer(ctx context.Context, buyer domain.Address, ref domain.AssetRef, amount uint64, duration time.Duration) (*domain.Offer, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidPrice
	}
	if err := domain.ValidateDuration(duration); err != nil {
		return nil, err
	}
	if err := validateAsset(ref); err != nil {
		return nil, err
	}

	var offer *domain.Offer
	err := m.run(ctx, "make_offer", func(op *operation) error {
		owner, err := m.gateway.OwnerOf(op.ctx, ref)
		if err != nil {
			return err
		}
		if owner.Equal(buyer) {
			return domain.ErrSelfOffer
		}

		plan := settlement.NewPlan().Collect(buyer, amount)
		return m.execute(op, plan, func() error {
			offer = &domain.Offer{
				Buyer:     buyer,
				Asset:     ref,
				Price:     amount,
				ExpiresAt: op.now.Add(duration),
				Active:    true,
				CreatedAt: op.now,
			}
			if err := op.tx.CreateOffer(op.ctx, offer); err != nil {
				return err
			}

			stats, err := op.tx.GetStats(op.ctx)
			if err != nil {
				return err
			}
			stats.TotalOffers++
			if err := op.tx.SaveStats(op.ctx, stats); err != nil {
				return err
			}

			op.emit(domain.Event{
				Type:     domain.EventTypeOfferCreated,
				RecordID: offer.ID,
				Asset:    &offer.Asset,
				Actor:    buyer,
				Amount:   amount,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// AcceptOffer sells the asset to the offer's buyer out of the escrowed funds.
// Any active listing or auction on the asset is closed in the same operation
// and a standing auction bid is refunded.
func (m *Market) AcceptOffer(ctx context.Context, id uint64, caller domain.Address) (*domain.Sale, error) {
	var sale *domain.Sale
	err := m.run(ctx, "accept_offer", func(op *operation) error {
		offer, err := op.tx.GetOffer(op.ctx, id)
		if err != nil {
			return err
		}
		if !offer.Active {
			return domain.ErrNotActive
		}
		if !op.now.Before(offer.ExpiresAt) {
			return domain.ErrExpired
		}

		owner, err := m.gateway.OwnerOf(op.ctx, offer.Asset)
		if err != nil {
			return err
		}
		if !owner.Equal(caller) {
			return domain.ErrNotOwner
		}
		if offer.Buyer.Equal(caller) {
			return domain.ErrSelfOffer
		}
		ok, err := asset.Authorized(op.ctx, m.gateway, offer.Asset, caller, m.config.Market)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotApproved
		}

		royaltyBp, royaltyRecipient, err := m.config.OfferRoyalty.OfferRoyalty(op.ctx, offer.Asset, caller)
		if err != nil {
			return err
		}
		if err := domain.ValidateRoyalty(royaltyBp, royaltyRecipient); err != nil {
			return err
		}

		platformFeeBp, err := m.platformFeeBp(op)
		if err != nil {
			return err
		}
		breakdown, err := settlement.Split(offer.Price, platformFeeBp, royaltyBp)
		if err != nil {
			return err
		}

		listing, auction, err := activeTrading(op, offer.Asset)
		if err != nil {
			return err
		}

		plan := settlement.NewPlan()
		if auction != nil && auction.HasBid() {
			plan.Pay(*auction.CurrentBidder, auction.CurrentBid)
		}
		plan.TransferAsset(offer.Asset, caller, offer.Buyer).
			Settle(breakdown, caller, royaltyRecipient)

		return m.execute(op, plan, func() error {
			offer.Active = false
			if err := op.tx.UpdateOffer(op.ctx, offer); err != nil {
				return err
			}

			if listing != nil {
				if err := deactivateListing(op, listing); err != nil {
					return err
				}
				op.emit(domain.Event{
					Type:     domain.EventTypeListingCancelled,
					RecordID: listing.ID,
					Asset:    &listing.Asset,
					Actor:    caller,
				})
			}
			if auction != nil {
				if err := closeAuction(op, auction); err != nil {
					return err
				}
				if auction.HasBid() {
					op.emit(domain.Event{
						Type:         domain.EventTypeBidRefunded,
						RecordID:     auction.ID,
						Asset:        &auction.Asset,
						Actor:        caller,
						Counterparty: *auction.CurrentBidder,
						Amount:       auction.CurrentBid,
					})
				}
				op.emit(domain.Event{
					Type:         domain.EventTypeAuctionEnded,
					RecordID:     auction.ID,
					Asset:        &auction.Asset,
					Actor:        auction.Seller,
					Counterparty: domain.ZeroAddress,
				})
			}

			sale = &domain.Sale{
				Seller:           caller,
				Buyer:            offer.Buyer,
				Asset:            offer.Asset,
				RoyaltyRecipient: royaltyRecipient,
				Source:           domain.SaleSourceOffer,
				SourceID:         offer.ID,
			}
			if err := recordSale(op, sale, breakdown); err != nil {
				return err
			}

			op.emit(domain.Event{
				Type:         domain.EventTypeOfferAccepted,
				RecordID:     offer.ID,
				Asset:        &offer.Asset,
				Actor:        caller,
				Counterparty: offer.Buyer,
				Amount:       offer.Price,
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

// CancelOffer refunds the escrowed amount in full. Expired offers can still be cancelled.
func (m *Market) CancelOffer(ctx context.Context, id uint64, caller domain.Address) error {
	return m.run(ctx, "cancel_offer", func(op *operation) error {
		offer, err := op.tx.GetOffer(op.ctx, id)
		if err != nil {
			return err
		}
		if !offer.Active {
			return domain.ErrNotActive
		}
		if !offer.Buyer.Equal(caller) {
			return domain.ErrNotBuyer
		}

		plan := settlement.NewPlan().Pay(offer.Buyer, offer.Price)
		return m.execute(op, plan, func() error {
			offer.Active = false
			if err := op.tx.UpdateOffer(op.ctx, offer); err != nil {
				return err
			}

			op.emit(domain.Event{
				Type:     domain.EventTypeOfferCancelled,
				RecordID: offer.ID,
				Asset:    &offer.Asset,
				Actor:    caller,
				Amount:   offer.Price,
			})
			return nil
		})
	})
}

// activeTrading loads the active listing and auction of an asset, if any
func activeTrading(op *operation, ref domain.AssetRef) (*domain.Listing, *domain.Auction, error) {
	var listing *domain.Listing
	listingID, err := op.tx.ActiveListingID(op.ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if listingID != 0 {
		if listing, err = op.tx.GetListing(op.ctx, listingID); err != nil {
			return nil, nil, err
		}
	}

	var auction *domain.Auction
	auctionID, err := op.tx.ActiveAuctionID(op.ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if auctionID != 0 {
		if auction, err = op.tx.GetAuction(op.ctx, auctionID); err != nil {
			return nil, nil, err
		}
	}

	return listing, auction, nil
}
