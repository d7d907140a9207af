package model

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputeActive   DisputeStatus = "active"
	DisputeResolved DisputeStatus = "resolved"
)

type DisputeReason string

const (
	DisputeQualityOfWork   DisputeReason = "quality_of_work"
	DisputeDelayedDelivery DisputeReason = "delayed_delivery"
	DisputePaymentIssue    DisputeReason = "payment_issue"
	DisputeScopeChange     DisputeReason = "scope_disagreement"
	DisputeConduct         DisputeReason = "unprofessional_conduct"
	DisputeOther           DisputeReason = "other"
)

func (r DisputeReason) Valid() bool {
	switch r {
	case DisputeQualityOfWork, DisputeDelayedDelivery, DisputePaymentIssue,
		DisputeScopeChange, DisputeConduct, DisputeOther:
		return true
	}
	return false
}

// Dispute records a disagreement raised against a work order. PriorStatus is
// the work-order status at raise time so resolution can restore it.
type Dispute struct {
	ID           uuid.UUID       `json:"id"`
	RaisedBy     uuid.UUID       `json:"raised_by"`
	RaisedByType ActorType       `json:"raised_by_type"`
	Reason       DisputeReason   `json:"reason"`
	Description  string          `json:"description"`
	Status       DisputeStatus   `json:"status"`
	PriorStatus  WorkOrderStatus `json:"prior_status"`
	Resolution   string          `json:"resolution,omitempty"`
	RaisedAt     time.Time       `json:"raised_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}

type FeedbackStage string

const (
	FeedbackDuringExecution FeedbackStage = "during_execution"
	FeedbackOnCompletion    FeedbackStage = "on_completion"
)

// Feedback is an append-only rating log; any party may leave any number of
// entries at any stage.
type Feedback struct {
	ID             uuid.UUID     `json:"id"`
	ProvidedBy     uuid.UUID     `json:"provided_by"`
	ProvidedByType ActorType     `json:"provided_by_type"`
	Stage          FeedbackStage `json:"stage"`
	Rating         int           `json:"rating"`
	Summary        string        `json:"summary"`
	CreatedAt      time.Time     `json:"created_at"`
}
