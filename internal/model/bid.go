package model

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidStatusDraft       BidStatus = "draft"
	BidStatusSubmitted   BidStatus = "submitted"
	BidStatusUnderReview BidStatus = "under_review"
	BidStatusAccepted    BidStatus = "accepted"
	BidStatusRejected    BidStatus = "rejected"
)

// Terminal reports whether no further status transition is allowed.
func (s BidStatus) Terminal() bool {
	return s == BidStatusAccepted || s == BidStatusRejected
}

type BidderProfile struct {
	UserID      uuid.UUID `json:"user_id"`
	OrgID       uuid.UUID `json:"org_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	TaxID       string    `json:"tax_id"`
	Credentials string    `json:"credentials"`
}

type Bid struct {
	ID               uuid.UUID          `json:"id"`
	ServiceRequestID uuid.UUID          `json:"service_request_id"`
	Bidder           BidderProfile      `json:"bidder"`
	Breakdown        FinancialBreakdown `json:"breakdown"`
	DeliveryDate     time.Time          `json:"delivery_date"`
	Status           BidStatus          `json:"status"`
	Queries          []BidQuery         `json:"queries,omitempty"`
	Version          int64              `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// BidQuery is one clarification thread entry on a bid. A non-public query is
// visible only to the bidder it addresses.
type BidQuery struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	AuthorType ActorType  `json:"author_type"`
	Message    string     `json:"message"`
	Public     bool       `json:"public"`
	Replies    []BidReply `json:"replies,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type BidReply struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorType ActorType `json:"author_type"`
	Message    string    `json:"message"`
	Public     bool      `json:"public"`
	CreatedAt  time.Time `json:"created_at"`
}
