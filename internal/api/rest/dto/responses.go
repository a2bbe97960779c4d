package dto

import "github.com/feral-file/ff-ticket-market/internal/domain"

// AuctionResponse is an auction with the lowest bid it currently accepts
type AuctionResponse struct {
	*domain.Auction
	MinimumBid uint64 `json:"minimum_bid"`
}

// NewAuctionResponse builds the response for an auction
func NewAuctionResponse(a *domain.Auction) AuctionResponse {
	resp := AuctionResponse{Auction: a}
	if a.Active {
		resp.MinimumBid = a.MinimumBid()
	}
	return resp
}

// WithdrawFeesResponse represents the response of a platform fee withdrawal
type WithdrawFeesResponse struct {
	Recipient domain.Address `json:"recipient"`
	Amount    uint64         `json:"amount"`
}

// BalanceResponse represents a custodial balance
type BalanceResponse struct {
	Address domain.Address `json:"address"`
	Balance uint64         `json:"balance"`
}

// SalesResponse represents the sale history of an asset
type SalesResponse struct {
	Asset domain.AssetRef `json:"asset"`
	Sales []domain.Sale   `json:"sales"`
}
