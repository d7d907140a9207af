package model

import (
	"time"

	"github.com/google/uuid"
)

type NegotiationStatus string

const (
	NegotiationActive    NegotiationStatus = "active"
	NegotiationCompleted NegotiationStatus = "completed"
	NegotiationCancelled NegotiationStatus = "cancelled"
)

// ProposedTerms is the financial/delivery counterproposal carried by a
// negotiation input or returned as the agreed outcome of a thread.
type ProposedTerms struct {
	ProfessionalFee   int64     `json:"professional_fee"`
	Reimbursements    int64     `json:"reimbursements"`
	RegulatoryPayouts int64     `json:"regulatory_payouts"`
	OPE               int64     `json:"ope"`
	DeliveryDate      time.Time `json:"delivery_date"`
}

type NegotiationInput struct {
	SenderType      ActorType      `json:"sender_type"`
	Message         string         `json:"message"`
	ProposedChanges *ProposedTerms `json:"proposed_changes,omitempty"`
	Attachments     []uuid.UUID    `json:"attachments,omitempty"`
	ReasonCode      string         `json:"reason_code,omitempty"`
	SentAt          time.Time      `json:"sent_at"`
}

// NegotiationThread is the append-only exchange attached to a bid under
// review. Once completed or cancelled it is never reopened.
type NegotiationThread struct {
	ID           uuid.UUID          `json:"id"`
	BidID        uuid.UUID          `json:"bid_id"`
	Status       NegotiationStatus  `json:"status"`
	Inputs       []NegotiationInput `json:"inputs,omitempty"`
	AgreedTerms  *ProposedTerms     `json:"agreed_terms,omitempty"`
	LastActivity time.Time          `json:"last_activity"`
	Version      int64              `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
}
