package store

import (
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/store/schema"
)

func assetFromColumns(contract, tokenNumber string) domain.AssetRef {
	return domain.AssetRef{Contract: domain.Address(contract), TokenID: tokenNumber}
}

func listingRow(l *domain.Listing) schema.Listing {
	return schema.Listing{
		ID:               l.ID,
		Seller:           l.Seller.String(),
		ContractAddress:  l.Asset.Contract.String(),
		TokenNumber:      l.Asset.TokenID,
		Price:            l.Price,
		RoyaltyBp:        l.RoyaltyBp,
		RoyaltyRecipient: l.RoyaltyRecipient.String(),
		Active:           l.Active,
		ListedAt:         l.ListedAt,
	}
}

func listingFromRow(r schema.Listing) *domain.Listing {
	return &domain.Listing{
		ID:               r.ID,
		Seller:           domain.Address(r.Seller),
		Asset:            assetFromColumns(r.ContractAddress, r.TokenNumber),
		Price:            r.Price,
		RoyaltyBp:        r.RoyaltyBp,
		RoyaltyRecipient: domain.Address(r.RoyaltyRecipient),
		Active:           r.Active,
		ListedAt:         r.ListedAt.UTC(),
	}
}

func auctionRow(a *domain.Auction) schema.Auction {
	row := schema.Auction{
		ID:               a.ID,
		Seller:           a.Seller.String(),
		ContractAddress:  a.Asset.Contract.String(),
		TokenNumber:      a.Asset.TokenID,
		StartPrice:       a.StartPrice,
		CurrentBid:       a.CurrentBid,
		EndTime:          a.EndTime,
		RoyaltyBp:        a.RoyaltyBp,
		RoyaltyRecipient: a.RoyaltyRecipient.String(),
		Active:           a.Active,
		Ended:            a.Ended,
		CreatedAt:        a.CreatedAt,
	}
	if a.CurrentBidder != nil {
		bidder := a.CurrentBidder.String()
		row.CurrentBidder = &bidder
	}
	return row
}

func auctionFromRow(r schema.Auction) *domain.Auction {
	a := &domain.Auction{
		ID:               r.ID,
		Seller:           domain.Address(r.Seller),
		Asset:            assetFromColumns(r.ContractAddress, r.TokenNumber),
		StartPrice:       r.StartPrice,
		CurrentBid:       r.CurrentBid,
		EndTime:          r.EndTime.UTC(),
		RoyaltyBp:        r.RoyaltyBp,
		RoyaltyRecipient: domain.Address(r.RoyaltyRecipient),
		Active:           r.Active,
		Ended:            r.Ended,
		CreatedAt:        r.CreatedAt.UTC(),
	}
	if r.CurrentBidder != nil {
		bidder := domain.Address(*r.CurrentBidder)
		a.CurrentBidder = &bidder
	}
	return a
}

func offerRow(o *domain.Offer) schema.Offer {
	return schema.Offer{
		ID:              o.ID,
		Buyer:           o.Buyer.String(),
		ContractAddress: o.Asset.Contract.String(),
		TokenNumber:     o.Asset.TokenID,
		Price:           o.Price,
		ExpiresAt:       o.ExpiresAt,
		Active:          o.Active,
		CreatedAt:       o.CreatedAt,
	}
}

func offerFromRow(r schema.Offer) *domain.Offer {
	return &domain.Offer{
		ID:        r.ID,
		Buyer:     domain.Address(r.Buyer),
		Asset:     assetFromColumns(r.ContractAddress, r.TokenNumber),
		Price:     r.Price,
		ExpiresAt: r.ExpiresAt.UTC(),
		Active:    r.Active,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func saleRow(s *domain.Sale) schema.Sale {
	return schema.Sale{
		ID:               s.ID,
		Seller:           s.Seller.String(),
		Buyer:            s.Buyer.String(),
		ContractAddress:  s.Asset.Contract.String(),
		TokenNumber:      s.Asset.TokenID,
		Price:            s.Price,
		PlatformFee:      s.PlatformFee,
		RoyaltyFee:       s.RoyaltyFee,
		RoyaltyRecipient: s.RoyaltyRecipient.String(),
		SellerProceeds:   s.SellerProceeds,
		Source:           string(s.Source),
		SourceID:         s.SourceID,
		Timestamp:        s.Timestamp,
	}
}

func saleFromRow(r schema.Sale) *domain.Sale {
	return &domain.Sale{
		ID:               r.ID,
		Seller:           domain.Address(r.Seller),
		Buyer:            domain.Address(r.Buyer),
		Asset:            assetFromColumns(r.ContractAddress, r.TokenNumber),
		Price:            r.Price,
		PlatformFee:      r.PlatformFee,
		RoyaltyFee:       r.RoyaltyFee,
		RoyaltyRecipient: domain.Address(r.RoyaltyRecipient),
		SellerProceeds:   r.SellerProceeds,
		Source:           domain.SaleSource(r.Source),
		SourceID:         r.SourceID,
		Timestamp:        r.Timestamp.UTC(),
	}
}

// balanceKey is the checksummed form of addr, so casing never splits an account
func balanceKey(addr domain.Address) domain.Address {
	return domain.Address(addr.Common().Hex())
}
