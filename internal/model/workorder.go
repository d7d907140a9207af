package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkOrderStatus string

const (
	WorkOrderProforma         WorkOrderStatus = "proforma"
	WorkOrderPaymentPending   WorkOrderStatus = "payment_pending"
	WorkOrderSignaturePending WorkOrderStatus = "signature_pending"
	WorkOrderInProgress       WorkOrderStatus = "in_progress"
	WorkOrderDisputed         WorkOrderStatus = "disputed"
	WorkOrderCompleted        WorkOrderStatus = "completed"
)

type WorkOrderType string

const (
	WorkOrderSeekerInitiated   WorkOrderType = "seeker_initiated"
	WorkOrderProviderInitiated WorkOrderType = "provider_initiated"
)

// Party identifies one side of an engagement. Identity fields are fixed at
// creation and never updated afterwards.
type Party struct {
	UserID uuid.UUID `json:"user_id"`
	OrgID  uuid.UUID `json:"org_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone"`
	TaxID  string    `json:"tax_id"`
}

type SignatureType string

const (
	SignatureElectronic SignatureType = "electronic"
	SignatureDigital    SignatureType = "digital"
	SignatureWet        SignatureType = "wet"
)

type Signature struct {
	SignedAt time.Time     `json:"signed_at"`
	Type     SignatureType `json:"type"`
}

type SignatureSet struct {
	Seeker   *Signature `json:"seeker,omitempty"`
	Provider *Signature `json:"provider,omitempty"`
}

func (s SignatureSet) Complete() bool {
	return s.Seeker != nil && s.Provider != nil
}

type Timeline struct {
	StartAt              time.Time  `json:"start_at"`
	ExpectedCompletionAt time.Time  `json:"expected_completion_at"`
	ActualCompletionAt   *time.Time `json:"actual_completion_at,omitempty"`
}

type InformationRequest struct {
	ID          uuid.UUID  `json:"id"`
	RequestedBy uuid.UUID  `json:"requested_by"`
	Subject     string     `json:"subject"`
	Message     string     `json:"message"`
	Response    string     `json:"response,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

type TeamMember struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

// WorkOrder is the engagement aggregate root. Everything it owns is embedded
// and persisted with it; status is the only terminal marker, rows are never
// hard-deleted.
type WorkOrder struct {
	ID                  uuid.UUID            `json:"id"`
	Reference           string               `json:"reference"`
	Type                WorkOrderType        `json:"type"`
	Status              WorkOrderStatus      `json:"status"`
	BidID               *uuid.UUID           `json:"bid_id,omitempty"`
	Seeker              Party                `json:"seeker"`
	Provider            Party                `json:"provider"`
	ScopeOfWork         string               `json:"scope_of_work"`
	Deliverables        []string             `json:"deliverables,omitempty"`
	Timeline            Timeline             `json:"timeline"`
	Breakdown           FinancialBreakdown   `json:"breakdown"`
	Milestones          []Milestone          `json:"milestones,omitempty"`
	InformationRequests []InformationRequest `json:"information_requests,omitempty"`
	TeamMembers         []TeamMember         `json:"team_members,omitempty"`
	Disputes            []Dispute            `json:"disputes,omitempty"`
	Feedback            []Feedback           `json:"feedback,omitempty"`
	Activities          []ActivityRecord     `json:"activities,omitempty"`
	Signatures          SignatureSet         `json:"signatures"`
	Version             int64                `json:"version"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// ActiveDisputes counts disputes still open; the work order holds status
// disputed while this is non-zero.
func (w *WorkOrder) ActiveDisputes() int {
	n := 0
	for _, d := range w.Disputes {
		if d.Status == DisputeActive {
			n++
		}
	}
	return n
}

// Clone deep-copies the aggregate so command handlers can work on a copy and
// leave the original untouched when a command is rejected.
func (w *WorkOrder) Clone() *WorkOrder {
	cp := *w
	cp.Deliverables = append([]string(nil), w.Deliverables...)
	cp.Milestones = make([]Milestone, len(w.Milestones))
	for i, m := range w.Milestones {
		cp.Milestones[i] = m
		cp.Milestones[i].Documents = append([]uuid.UUID(nil), m.Documents...)
		cp.Milestones[i].Comments = append([]MilestoneComment(nil), m.Comments...)
	}
	cp.InformationRequests = append([]InformationRequest(nil), w.InformationRequests...)
	cp.TeamMembers = append([]TeamMember(nil), w.TeamMembers...)
	cp.Disputes = append([]Dispute(nil), w.Disputes...)
	cp.Feedback = append([]Feedback(nil), w.Feedback...)
	cp.Activities = append([]ActivityRecord(nil), w.Activities...)
	cp.Breakdown.PaymentTerms = append([]PaymentTerm(nil), w.Breakdown.PaymentTerms...)
	cp.Breakdown.MoneyReceipts = append([]MoneyReceipt(nil), w.Breakdown.MoneyReceipts...)
	cp.Breakdown.FeeAdvices = append([]FeeAdvice(nil), w.Breakdown.FeeAdvices...)
	if w.Signatures.Seeker != nil {
		sig := *w.Signatures.Seeker
		cp.Signatures.Seeker = &sig
	}
	if w.Signatures.Provider != nil {
		sig := *w.Signatures.Provider
		cp.Signatures.Provider = &sig
	}
	return &cp
}
