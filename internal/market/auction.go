package market

import (
	"context"
	"time"

	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/settlement"
)

// CreateAuction starts an English auction that ends duration from now
func (m *Market) CreateAuction(ctx context.Context, seller domain.Address, ref domain.AssetRef, startPrice uint64, duration time.Duration, royaltyBp uint16, royaltyRecipient domain.Address) (*domain.Auction, error) {
	if startPrice == 0 {
		return nil, domain.ErrInvalidPrice
	}
	if err := domain.ValidateDuration(duration); err != nil {
		return nil, err
	}
	if err := domain.ValidateRoyalty(royaltyBp, royaltyRecipient); err != nil {
		return nil, err
	}
	if err := validateAsset(ref); err != nil {
		return nil, err
	}

	var auction *domain.Auction
	err := m.run(ctx, "create_auction", func(op *operation) error {
		if err := m.checkSellable(op.ctx, ref, seller); err != nil {
			return err
		}

		auctionID, err := op.tx.ActiveAuctionID(op.ctx, ref)
		if err != nil {
			return err
		}
		if auctionID != 0 {
			return domain.ErrAlreadyInAuction
		}
		listingID, err := op.tx.ActiveListingID(op.ctx, ref)
		if err != nil {
			return err
		}
		if listingID != 0 {
			return domain.ErrAlreadyListed
		}

		auction = &domain.Auction{
			Seller:           seller,
			Asset:            ref,
			StartPrice:       startPrice,
			EndTime:          op.now.Add(duration),
			RoyaltyBp:        royaltyBp,
			RoyaltyRecipient: royaltyRecipient,
			Active:           true,
			CreatedAt:        op.now,
		}
		if err := op.tx.CreateAuction(op.ctx, auction); err != nil {
			return err
		}
		if err := op.tx.SetActiveAuction(op.ctx, ref, auction.ID); err != nil {
			return err
		}

		stats, err := op.tx.GetStats(op.ctx)
		if err != nil {
			return err
		}
		stats.TotalAuctions++
		if err := op.tx.SaveStats(op.ctx, stats); err != nil {
			return err
		}

		op.emit(domain.Event{
			Type:     domain.EventTypeAuctionCreated,
			RecordID: auction.ID,
			Asset:    &auction.Asset,
			Actor:    seller,
			Amount:   startPrice,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auction, nil
}

// PlaceBid escrows amount as the new highest bid. The previous bidder is
// refunded within the same operation, before the new funds are collected;
// if that refund fails the bid is rejected.
//
// The new bid is written to the ledger before either transfer runs, so the
// refund precedes collection, not recording. Both sit in one atomic unit and a
// failed transfer discards the recorded bid.
func (m *Market) PlaceBid(ctx context.Context, id uint64, caller domain.Address, amount uint64) (*domain.Auction, error) {
	var auction *domain.Auction
	err := m.run(ctx, "place_bid", func(op *operation) error {
		var err error
		auction, err = op.tx.GetAuction(op.ctx, id)
		if err != nil {
			return err
		}
		if !auction.Active {
			return domain.ErrNotActive
		}
		if !op.now.Before(auction.EndTime) {
			return domain.ErrExpired
		}
		if auction.Seller.Equal(caller) {
			return domain.ErrSelfBid
		}
		if amount < auction.MinimumBid() {
			return domain.ErrBidTooLow
		}

		previousBid := auction.CurrentBid
		var previousBidder domain.Address
		hadBid := auction.HasBid()
		if hadBid {
			previousBidder = *auction.CurrentBidder
		}

		plan := settlement.NewPlan()
		if hadBid {
			plan.Pay(previousBidder, previousBid)
		}
		plan.Collect(caller, amount)

		return m.execute(op, plan, func() error {
			bidder := caller
			auction.CurrentBid = amount
			auction.CurrentBidder = &bidder
			if err := op.tx.UpdateAuction(op.ctx, auction); err != nil {
				return err
			}

			if hadBid {
				op.emit(domain.Event{
					Type:         domain.EventTypeBidRefunded,
					RecordID:     auction.ID,
					Asset:        &auction.Asset,
					Actor:        caller,
					Counterparty: previousBidder,
					Amount:       previousBid,
				})
			}
			op.emit(domain.Event{
				Type:     domain.EventTypeBidPlaced,
				RecordID: auction.ID,
				Asset:    &auction.Asset,
				Actor:    caller,
				Amount:   amount,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return auction, nil
}

// EndAuction closes an auction at or after its end time. Anyone may call it.
// With a winner the asset and funds are settled; without bids the asset stays
// with the seller and no sale is recorded.
func (m *Market) EndAuction(ctx context.Context, id uint64, caller domain.Address) (*domain.Sale, error) {
	var sale *domain.Sale
	err := m.run(ctx, "end_auction", func(op *operation) error {
		auction, err := op.tx.GetAuction(op.ctx, id)
		if err != nil {
			return err
		}
		if auction.Ended {
			return domain.ErrAlreadyEnded
		}
		if !auction.Active {
			return domain.ErrNotActive
		}
		if op.now.Before(auction.EndTime) {
			return domain.ErrStillOngoing
		}

		if !auction.HasBid() {
			return m.execute(op, settlement.NewPlan(), func() error {
				if err := closeAuction(op, auction); err != nil {
					return err
				}
				op.emit(domain.Event{
					Type:         domain.EventTypeAuctionEnded,
					RecordID:     auction.ID,
					Asset:        &auction.Asset,
					Actor:        auction.Seller,
					Counterparty: domain.ZeroAddress,
				})
				return nil
			})
		}

		winner := *auction.CurrentBidder
		owner, err := m.gateway.OwnerOf(op.ctx, auction.Asset)
		if err != nil {
			return err
		}
		if !owner.Equal(auction.Seller) {
			return domain.ErrSellerNoLongerOwns
		}

		platformFeeBp, err := m.platformFeeBp(op)
		if err != nil {
			return err
		}
		breakdown, err := settlement.Split(auction.CurrentBid, platformFeeBp, auction.RoyaltyBp)
		if err != nil {
			return err
		}

		plan := settlement.NewPlan().
			TransferAsset(auction.Asset, auction.Seller, winner).
			Settle(breakdown, auction.Seller, auction.RoyaltyRecipient)

		return m.execute(op, plan, func() error {
			if err := closeAuction(op, auction); err != nil {
				return err
			}

			sale = &domain.Sale{
				Seller:           auction.Seller,
				Buyer:            winner,
				Asset:            auction.Asset,
				RoyaltyRecipient: auction.RoyaltyRecipient,
				Source:           domain.SaleSourceAuction,
				SourceID:         auction.ID,
			}
			if err := recordSale(op, sale, breakdown); err != nil {
				return err
			}

			op.emit(domain.Event{
				Type:         domain.EventTypeAuctionEnded,
				RecordID:     auction.ID,
				Asset:        &auction.Asset,
				Actor:        auction.Seller,
				Counterparty: winner,
				Amount:       auction.CurrentBid,
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

// closeAuction marks the auction ended and clears the asset index
func closeAuction(op *operation, auction *domain.Auction) error {
	auction.Active = false
	auction.Ended = true
	if err := op.tx.UpdateAuction(op.ctx, auction); err != nil {
		return err
	}
	return op.tx.SetActiveAuction(op.ctx, auction.Asset, 0)
}
