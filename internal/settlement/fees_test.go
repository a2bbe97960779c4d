package settlement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		price       uint64
		platformBp  uint16
		royaltyBp   uint16
		expected    Breakdown
		expectedErr error
	}{
		{
			name:       "default fee with five percent royalty",
			price:      100,
			platformBp: 250,
			royaltyBp:  500,
			expected:   Breakdown{Price: 100, PlatformFee: 2, RoyaltyFee: 5, SellerProceeds: 93},
		},
		{
			name:       "auction with ten percent royalty",
			price:      10_500,
			platformBp: 250,
			royaltyBp:  1000,
			expected:   Breakdown{Price: 10_500, PlatformFee: 262, RoyaltyFee: 1050, SellerProceeds: 9188},
		},
		{
			name:       "dust goes to the seller",
			price:      1,
			platformBp: 1000,
			royaltyBp:  2000,
			expected:   Breakdown{Price: 1, SellerProceeds: 1},
		},
		{
			name:       "no fees",
			price:      777,
			platformBp: 0,
			royaltyBp:  0,
			expected:   Breakdown{Price: 777, SellerProceeds: 777},
		},
		{
			name:       "max price does not overflow",
			price:      math.MaxUint64,
			platformBp: 1000,
			royaltyBp:  2000,
			expected: Breakdown{
				Price:          math.MaxUint64,
				PlatformFee:    1844674407370955161,
				RoyaltyFee:     3689348814741910323,
				SellerProceeds: math.MaxUint64 - 1844674407370955161 - 3689348814741910323,
			},
		},
		{
			name:        "platform fee above ceiling",
			price:       100,
			platformBp:  1001,
			expectedErr: domain.ErrFeeTooHigh,
		},
		{
			name:        "royalty above ceiling",
			price:       100,
			platformBp:  250,
			royaltyBp:   2001,
			expectedErr: domain.ErrInvalidRoyalty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Split(tt.price, tt.platformBp, tt.royaltyBp)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b)
		})
	}
}

func TestSplit_Conservation(t *testing.T) {
	prices := []uint64{1, 2, 3, 7, 19, 20, 39, 99, 100, 101, 9_999, 10_000, 10_001, 123_456_789, math.MaxUint64 / 3, math.MaxUint64}
	rates := []uint16{0, 1, 7, 250, 499, 500, 999, 1000}
	royalties := []uint16{0, 1, 333, 500, 1000, 1999, 2000}

	for _, price := range prices {
		for _, platformBp := range rates {
			for _, royaltyBp := range royalties {
				b, err := Split(price, platformBp, royaltyBp)
				require.NoError(t, err)
				assert.Equal(t, price, b.PlatformFee+b.RoyaltyFee+b.SellerProceeds,
					"price=%d platform=%d royalty=%d", price, platformBp, royaltyBp)
				assert.LessOrEqual(t, b.PlatformFee, price/10)
				assert.LessOrEqual(t, b.RoyaltyFee, price/5)
			}
		}
	}
}
