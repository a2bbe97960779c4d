package dto

import (
	"fmt"
	"time"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// AssetRequest identifies a token in request bodies
type AssetRequest struct {
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`
}

// Ref parses the asset reference
func (r AssetRequest) Ref() (domain.AssetRef, error) {
	return domain.NewAssetRef(r.Contract, r.TokenID)
}

// CreateListingRequest represents the request body for listing an asset at a fixed price
type CreateListingRequest struct {
	Asset            AssetRequest `json:"asset"`
	Price            uint64       `json:"price"`
	RoyaltyBp        uint16       `json:"royalty_bp"`
	RoyaltyRecipient string       `json:"royalty_recipient"`
}

// Parse validates the request body and returns the asset and royalty recipient
func (r *CreateListingRequest) Parse() (domain.AssetRef, domain.Address, error) {
	return parseSaleTerms(r.Asset, r.RoyaltyRecipient)
}

// CreateAuctionRequest represents the request body for starting an auction
type CreateAuctionRequest struct {
	Asset            AssetRequest `json:"asset"`
	StartPrice       uint64       `json:"start_price"`
	DurationSeconds  uint64       `json:"duration_seconds"`
	RoyaltyBp        uint16       `json:"royalty_bp"`
	RoyaltyRecipient string       `json:"royalty_recipient"`
}

// Parse validates the request body and returns the asset and royalty recipient
func (r *CreateAuctionRequest) Parse() (domain.AssetRef, domain.Address, error) {
	return parseSaleTerms(r.Asset, r.RoyaltyRecipient)
}

// Duration returns the requested auction duration
func (r *CreateAuctionRequest) Duration() time.Duration {
	return seconds(r.DurationSeconds)
}

// AmountRequest represents a request body carrying a payment amount (buy, bid)
type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

// MakeOfferRequest represents the request body for escrowing an offer on an asset
type MakeOfferRequest struct {
	Asset           AssetRequest `json:"asset"`
	Amount          uint64       `json:"amount"`
	DurationSeconds uint64       `json:"duration_seconds"`
}

// Duration returns the requested offer lifetime
func (r *MakeOfferRequest) Duration() time.Duration {
	return seconds(r.DurationSeconds)
}

// SetPlatformFeeRequest represents the request body for updating the platform fee rate
type SetPlatformFeeRequest struct {
	FeeBp uint16 `json:"fee_bp"`
}

// SetPlatformContractRequest represents the request body for updating the platform contract.
// The zero address disables sale notifications.
type SetPlatformContractRequest struct {
	Contract string `json:"contract"`
}

// DepositRequest represents the request body for crediting a custodial balance
type DepositRequest struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Parse validates the request body and returns the credited address
func (r *DepositRequest) Parse() (domain.Address, error) {
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return "", err
	}
	if addr.IsZero() {
		return "", fmt.Errorf("%w: zero address", domain.ErrInvalidAddress)
	}
	if r.Amount == 0 {
		return "", domain.ErrInvalidPrice
	}
	return addr, nil
}

func parseSaleTerms(asset AssetRequest, royaltyRecipient string) (domain.AssetRef, domain.Address, error) {
	ref, err := asset.Ref()
	if err != nil {
		return domain.AssetRef{}, "", err
	}

	recipient, err := domain.ParseAddress(royaltyRecipient)
	if err != nil {
		return domain.AssetRef{}, "", fmt.Errorf("%w: royalty_recipient", domain.ErrInvalidRecipient)
	}
	return ref, recipient, nil
}

// seconds converts a duration in seconds, saturating instead of overflowing
func seconds(s uint64) time.Duration {
	const maxSeconds = uint64(1<<63-1) / uint64(time.Second)
	if s > maxSeconds {
		s = maxSeconds
	}
	return time.Duration(s) * time.Second
}
