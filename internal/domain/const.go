package domain

import "time"

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// BasisPointsDenominator is 100% expressed in basis points
	BasisPointsDenominator = 10_000

	// MaxRoyaltyBp caps the royalty a listing or auction may carry (20%)
	MaxRoyaltyBp = 2_000

	// MaxPlatformFeeBp is the hard ceiling for the platform fee rate (10%)
	MaxPlatformFeeBp = 1_000

	// DefaultPlatformFeeBp is the platform fee rate of a fresh ledger (2.5%)
	DefaultPlatformFeeBp = 250

	// DefaultOfferRoyaltyBp is the royalty applied when an offer is accepted (5%)
	DefaultOfferRoyaltyBp = 500

	// MinBidIncrementDivisor makes every bid after the first at least 5% above the current one
	MinBidIncrementDivisor = 20
)

const (
	MinDuration = time.Hour
	MaxDuration = 30 * 24 * time.Hour
)
