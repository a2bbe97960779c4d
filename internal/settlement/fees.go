package settlement

import (
	"fmt"
	"math/bits"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Breakdown is the split of a sale price. PlatformFee + RoyaltyFee + SellerProceeds == Price.
type Breakdown struct {
	Price          uint64 `json:"price"`
	PlatformFee    uint64 `json:"platform_fee"`
	RoyaltyFee     uint64 `json:"royalty_fee"`
	SellerProceeds uint64 `json:"seller_proceeds"`
}

// Split computes the fee breakdown of price. Both fees round down and the
// seller absorbs the remainder.
func Split(price uint64, platformFeeBp, royaltyBp uint16) (Breakdown, error) {
	if platformFeeBp > domain.MaxPlatformFeeBp {
		return Breakdown{}, fmt.Errorf("%w: %d bp", domain.ErrFeeTooHigh, platformFeeBp)
	}
	if royaltyBp > domain.MaxRoyaltyBp {
		return Breakdown{}, fmt.Errorf("%w: %d bp", domain.ErrInvalidRoyalty, royaltyBp)
	}

	platformFee := basisPoints(price, platformFeeBp)
	royaltyFee := basisPoints(price, royaltyBp)

	return Breakdown{
		Price:          price,
		PlatformFee:    platformFee,
		RoyaltyFee:     royaltyFee,
		SellerProceeds: price - platformFee - royaltyFee,
	}, nil
}

// basisPoints returns floor(amount * bp / 10000) without overflowing
func basisPoints(amount uint64, bp uint16) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bp))
	// hi < bp < denominator, so the quotient fits in 64 bits
	q, _ := bits.Div64(hi, lo, domain.BasisPointsDenominator)
	return q
}
