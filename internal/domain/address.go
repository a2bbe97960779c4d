package domain

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

// Address is an EIP-55 checksummed account or contract address
type Address string

// ZeroAddress is the null address
const ZeroAddress Address = ETHEREUM_ZERO_ADDRESS

// ParseAddress validates and normalizes a hex address
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(common.HexToAddress(s).Hex()), nil
}

// MustAddress is ParseAddress for constants and tests
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether the address is empty or the null address
func (a Address) IsZero() bool {
	return a == "" || common.HexToAddress(string(a)) == (common.Address{})
}

// Valid checks the address is well-formed and not the null address
func (a Address) Valid() bool {
	return common.IsHexAddress(string(a)) && !a.IsZero()
}

// Common converts the address to its go-ethereum representation
func (a Address) Common() common.Address {
	return common.HexToAddress(string(a))
}

// Equal compares two addresses ignoring checksum casing
func (a Address) Equal(b Address) bool {
	return a.Common() == b.Common()
}

// String returns the string representation of the address
func (a Address) String() string {
	return string(a)
}

// AssetRef identifies one token of an asset contract
type AssetRef struct {
	Contract Address `json:"contract"`
	TokenID  string  `json:"token_id"`
}

// NewAssetRef normalizes and validates an asset reference.
// Leading zeros are stripped so every token has exactly one reference.
func NewAssetRef(contract string, tokenID string) (AssetRef, error) {
	addr, err := ParseAddress(contract)
	if err != nil {
		return AssetRef{}, err
	}
	if addr.IsZero() {
		return AssetRef{}, fmt.Errorf("%w: zero contract address", ErrInvalidAddress)
	}
	ref := AssetRef{Contract: addr, TokenID: tokenID}
	n, err := ref.TokenNumber()
	if err != nil {
		return AssetRef{}, err
	}
	ref.TokenID = n.String()
	return ref, nil
}

// Canonical reports whether the token id is a decimal number without sign or leading zeros
func (r AssetRef) Canonical() bool {
	return canonicalTokenNumberPattern.MatchString(r.TokenID)
}

// Key returns the canonical key used by per-asset indices: contract:tokenID
func (r AssetRef) Key() string {
	return fmt.Sprintf("%s:%s", r.Contract.Common().Hex(), r.TokenID)
}

// TokenNumber returns the token id as a big integer
func (r AssetRef) TokenNumber() (*big.Int, error) {
	if !validTokenNumber(r.TokenID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenID, r.TokenID)
	}
	n, ok := new(big.Int).SetString(r.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenID, r.TokenID)
	}
	return n, nil
}

// String returns the string representation of the asset reference
func (r AssetRef) String() string {
	return r.Key()
}

var (
	tokenNumberPattern          = regexp.MustCompile(`^[0-9]+$`)
	canonicalTokenNumberPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
)

// validTokenNumber checks if a token number is a non-empty decimal string
func validTokenNumber(tokenNumber string) bool {
	return tokenNumberPattern.MatchString(tokenNumber)
}
