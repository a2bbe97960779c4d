package asset

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Gateway is the market's view of the ERC-721 asset contract
//
//go:generate mockgen -source=gateway.go -destination=../mocks/gateway.go -package=mocks -mock_names=Gateway=MockAssetGateway
type Gateway interface {
	// OwnerOf returns the current owner of the token
	OwnerOf(ctx context.Context, asset domain.AssetRef) (domain.Address, error)

	// GetApproved returns the address approved for the single token, or the zero address
	GetApproved(ctx context.Context, asset domain.AssetRef) (domain.Address, error)

	// IsApprovedForAll reports whether operator may manage every token owner holds in contract
	IsApprovedForAll(ctx context.Context, contract domain.Address, owner, operator domain.Address) (bool, error)

	// Transfer moves the token from -> to on behalf of the market and returns once it is confirmed
	Transfer(ctx context.Context, asset domain.AssetRef, from, to domain.Address) error
}

// Authorized reports whether operator may transfer the token on behalf of owner
func Authorized(ctx context.Context, gw Gateway, asset domain.AssetRef, owner, operator domain.Address) (bool, error) {
	all, err := gw.IsApprovedForAll(ctx, asset.Contract, owner, operator)
	if err != nil {
		return false, fmt.Errorf("failed to check operator approval: %w", err)
	}
	if all {
		return true, nil
	}

	approved, err := gw.GetApproved(ctx, asset)
	if err != nil {
		return false, fmt.Errorf("failed to check token approval: %w", err)
	}
	return approved.Equal(operator) && !approved.IsZero(), nil
}
