package domain

import "errors"

// Validation errors are raised before any state is read for mutation
var (
	// ErrInvalidPrice is returned when a price, start price or offer amount is zero
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidRoyalty is returned when a royalty exceeds MaxRoyaltyBp
	ErrInvalidRoyalty = errors.New("invalid royalty")

	// ErrInvalidRecipient is returned when a royalty recipient is the null address
	ErrInvalidRecipient = errors.New("invalid royalty recipient")

	// ErrInvalidDuration is returned when an auction or offer duration is outside [MinDuration, MaxDuration]
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidAddress is returned for malformed addresses
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidTokenID is returned for malformed token ids
	ErrInvalidTokenID = errors.New("invalid token id")

	// ErrFeeTooHigh is returned when the platform fee rate exceeds MaxPlatformFeeBp
	ErrFeeTooHigh = errors.New("platform fee too high")

	// ErrBidTooLow is returned when a bid is below the minimum acceptable bid
	ErrBidTooLow = errors.New("bid too low")

	// ErrInsufficientPayment is returned when the paid amount is below the listing price
	ErrInsufficientPayment = errors.New("insufficient payment")
)

// Authorization errors
var (
	ErrNotOwner     = errors.New("caller is not the asset owner")
	ErrNotApproved  = errors.New("market is not approved to transfer the asset")
	ErrNotSeller    = errors.New("caller is not the seller")
	ErrNotBuyer     = errors.New("caller is not the buyer")
	ErrUnauthorized = errors.New("caller is not the operator")
	ErrSelfPurchase = errors.New("seller cannot buy own listing")
	ErrSelfBid      = errors.New("seller cannot bid on own auction")
	ErrSelfOffer    = errors.New("owner cannot make an offer on own asset")
)

// State errors
var (
	ErrNotActive         = errors.New("not active")
	ErrAlreadyListed     = errors.New("asset already listed")
	ErrAlreadyInAuction  = errors.New("asset already in auction")
	ErrAlreadyEnded      = errors.New("auction already ended")
	ErrStillOngoing      = errors.New("auction still ongoing")
	ErrExpired           = errors.New("expired")
	ErrNoFeesToWithdraw  = errors.New("no fees to withdraw")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountOverflow    = errors.New("amount overflow")
)

// Transfer errors
var (
	// ErrSellerNoLongerOwns is returned when the seller lost the asset after listing it
	ErrSellerNoLongerOwns = errors.New("seller no longer owns the asset")

	// ErrTransferFailed is returned when the asset contract rejects a transfer
	ErrTransferFailed = errors.New("asset transfer failed")

	// ErrPaymentFailed is returned when a native currency transfer fails
	ErrPaymentFailed = errors.New("payment failed")
)

// Lookup errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrSaleNotFound    = errors.New("sale not found")
)

// ErrorKind classifies market errors
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindState         ErrorKind = "state"
	KindTransfer      ErrorKind = "transfer"
	KindNotFound      ErrorKind = "not_found"
	KindInternal      ErrorKind = "internal"
)

type errorKind struct {
	err  error
	kind ErrorKind
}

var errorKinds = []errorKind{
	{ErrInvalidPrice, KindValidation},
	{ErrInvalidRoyalty, KindValidation},
	{ErrInvalidRecipient, KindValidation},
	{ErrInvalidDuration, KindValidation},
	{ErrInvalidAddress, KindValidation},
	{ErrInvalidTokenID, KindValidation},
	{ErrFeeTooHigh, KindValidation},
	{ErrBidTooLow, KindValidation},
	{ErrInsufficientPayment, KindValidation},

	{ErrNotOwner, KindAuthorization},
	{ErrNotApproved, KindAuthorization},
	{ErrNotSeller, KindAuthorization},
	{ErrNotBuyer, KindAuthorization},
	{ErrUnauthorized, KindAuthorization},
	{ErrSelfPurchase, KindAuthorization},
	{ErrSelfBid, KindAuthorization},
	{ErrSelfOffer, KindAuthorization},

	{ErrNotActive, KindState},
	{ErrAlreadyListed, KindState},
	{ErrAlreadyInAuction, KindState},
	{ErrAlreadyEnded, KindState},
	{ErrStillOngoing, KindState},
	{ErrExpired, KindState},
	{ErrNoFeesToWithdraw, KindState},
	{ErrInsufficientFunds, KindState},
	{ErrAmountOverflow, KindState},

	{ErrSellerNoLongerOwns, KindTransfer},
	{ErrTransferFailed, KindTransfer},
	{ErrPaymentFailed, KindTransfer},

	{ErrListingNotFound, KindNotFound},
	{ErrAuctionNotFound, KindNotFound},
	{ErrOfferNotFound, KindNotFound},
	{ErrSaleNotFound, KindNotFound},
}

// KindOf returns the kind of the first known market error in err's chain.
// The chain is walked outermost first, and joined errors in their wrap order.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if kind, ok := chainKind(err); ok {
		return kind
	}
	return KindInternal
}

func chainKind(err error) (ErrorKind, bool) {
	for _, k := range errorKinds {
		if err == k.err {
			return k.kind, true
		}
	}

	switch e := err.(type) {
	case interface{ Unwrap() error }:
		if inner := e.Unwrap(); inner != nil {
			return chainKind(inner)
		}
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if kind, ok := chainKind(inner); ok {
				return kind, true
			}
		}
	}
	return "", false
}
