package domain

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents the type of market event
type EventType string

const (
	EventTypeListingCreated          EventType = "listing_created"
	EventTypeListingCancelled        EventType = "listing_cancelled"
	EventTypeListingSold             EventType = "listing_sold"
	EventTypeAuctionCreated          EventType = "auction_created"
	EventTypeBidPlaced               EventType = "bid_placed"
	EventTypeBidRefunded             EventType = "bid_refunded"
	EventTypeAuctionEnded            EventType = "auction_ended"
	EventTypeOfferCreated            EventType = "offer_created"
	EventTypeOfferAccepted           EventType = "offer_accepted"
	EventTypeOfferCancelled          EventType = "offer_cancelled"
	EventTypePlatformFeeUpdated      EventType = "platform_fee_updated"
	EventTypePlatformContractUpdated EventType = "platform_contract_updated"
	EventTypeFeesWithdrawn           EventType = "fees_withdrawn"
)

// Event is emitted after an operation commits
//
// RecordID refers to the listing, auction or offer the event is about.
// Actor is the account that caused the event; Counterparty is the other side
// (buyer of a sale, winner of an auction, refunded bidder).
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	RecordID     uint64    `json:"record_id,omitempty"`
	Asset        *AssetRef `json:"asset,omitempty"`
	Actor        Address   `json:"actor,omitempty"`
	Counterparty Address   `json:"counterparty,omitempty"`
	Amount       uint64    `json:"amount"`
	SaleID       uint64    `json:"sale_id,omitempty"`
	OldValue     string    `json:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEventID returns a lexically sortable unique event id
func NewEventID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
