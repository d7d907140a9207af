package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// All amounts are currency minor units.

type PaymentTermStatus string

const (
	PaymentTermBalanceDue PaymentTermStatus = "balance_due"
	PaymentTermPaid       PaymentTermStatus = "paid"
)

type PaymentTerm struct {
	StageLabel string            `json:"stage_label"`
	Percentage float64           `json:"percentage"`
	Amount     int64             `json:"amount"`
	Status     PaymentTermStatus `json:"status"`
	Upfront    bool              `json:"upfront"`
	DueDate    time.Time         `json:"due_date"`
	PaidDate   *time.Time        `json:"paid_date,omitempty"`
}

type MoneyReceipt struct {
	ID         uuid.UUID `json:"id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference"`
	ReceivedAt time.Time `json:"received_at"`
}

type FeeAdviceStatus string

const (
	FeeAdvicePending  FeeAdviceStatus = "pending"
	FeeAdviceAccepted FeeAdviceStatus = "accepted"
	FeeAdviceRejected FeeAdviceStatus = "rejected"
	FeeAdvicePaid     FeeAdviceStatus = "paid"
)

// FeeAdvice is an additional charge raised during execution. Accepted fee
// advices are settled separately and never rewrite already-derived terms.
type FeeAdvice struct {
	ID          uuid.UUID       `json:"id"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	Status      FeeAdviceStatus `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
}

// FeeRates carries the platform commission and GST percentages.
type FeeRates struct {
	PlatformPct float64
	GSTPct      float64
}

func DefaultFeeRates() FeeRates {
	return FeeRates{PlatformPct: 10, GSTPct: 18}
}

// PaymentStage describes one entry of the payment schedule a breakdown is
// derived against. Percentages are of the total amount and must sum to 100.
type PaymentStage struct {
	Label   string    `json:"label"`
	Percent float64   `json:"percent"`
	Upfront bool      `json:"upfront"`
	DueDate time.Time `json:"due_date"`
}

type FinancialBreakdown struct {
	ProfessionalFee   int64          `json:"professional_fee"`
	PlatformFee       int64          `json:"platform_fee"`
	GST               int64          `json:"gst"`
	Reimbursements    int64          `json:"reimbursements"`
	RegulatoryPayouts int64          `json:"regulatory_payouts"`
	OPE               int64          `json:"ope"`
	TotalAmount       int64          `json:"total_amount"`
	PaymentTerms      []PaymentTerm  `json:"payment_terms,omitempty"`
	MoneyReceipts     []MoneyReceipt `json:"money_receipts,omitempty"`
	FeeAdvices        []FeeAdvice    `json:"fee_advices,omitempty"`
}

// ComputeBreakdown is the only place platform fee, GST, total amount and the
// payment terms are derived. Callers never set the derived fields directly.
func ComputeBreakdown(professionalFee, reimbursements, regulatoryPayouts, ope int64, schedule []PaymentStage, rates FeeRates) (FinancialBreakdown, error) {
	if professionalFee < 0 || reimbursements < 0 || regulatoryPayouts < 0 || ope < 0 {
		return FinancialBreakdown{}, fmt.Errorf("fee components must be non-negative")
	}

	platformFee := roundPct(professionalFee, rates.PlatformPct)
	gst := roundPct(professionalFee+platformFee, rates.GSTPct)
	total := professionalFee + platformFee + gst + reimbursements + regulatoryPayouts + ope

	terms, err := deriveTerms(total, schedule)
	if err != nil {
		return FinancialBreakdown{}, err
	}

	return FinancialBreakdown{
		ProfessionalFee:   professionalFee,
		PlatformFee:       platformFee,
		GST:               gst,
		Reimbursements:    reimbursements,
		RegulatoryPayouts: regulatoryPayouts,
		OPE:               ope,
		TotalAmount:       total,
		PaymentTerms:      terms,
	}, nil
}

func deriveTerms(total int64, schedule []PaymentStage) ([]PaymentTerm, error) {
	if len(schedule) == 0 {
		return nil, nil
	}

	sum := 0.0
	for _, stage := range schedule {
		if stage.Percent <= 0 {
			return nil, fmt.Errorf("payment stage %q must have a positive percentage", stage.Label)
		}
		sum += stage.Percent
	}
	if math.Abs(sum-100) > 1e-9 {
		return nil, fmt.Errorf("payment stage percentages sum to %.4f, want 100", sum)
	}

	terms := make([]PaymentTerm, 0, len(schedule))
	allocated := int64(0)
	for i, stage := range schedule {
		amount := roundPct(total, stage.Percent)
		if i == len(schedule)-1 {
			// The last term absorbs the rounding remainder so the
			// schedule always sums exactly to the total.
			amount = total - allocated
		}
		allocated += amount
		terms = append(terms, PaymentTerm{
			StageLabel: stage.Label,
			Percentage: stage.Percent,
			Amount:     amount,
			Status:     PaymentTermBalanceDue,
			Upfront:    stage.Upfront,
			DueDate:    stage.DueDate,
		})
	}
	return terms, nil
}

// NextDueTerm returns the index of the earliest outstanding term by due date,
// or -1 when everything is settled.
func (b FinancialBreakdown) NextDueTerm() int {
	next := -1
	for i, term := range b.PaymentTerms {
		if term.Status != PaymentTermBalanceDue {
			continue
		}
		if next == -1 || term.DueDate.Before(b.PaymentTerms[next].DueDate) {
			next = i
		}
	}
	return next
}

// UpfrontSettled reports whether every up-front term has been paid.
func (b FinancialBreakdown) UpfrontSettled() bool {
	for _, term := range b.PaymentTerms {
		if term.Upfront && term.Status == PaymentTermBalanceDue {
			return false
		}
	}
	return true
}

// roundPct rounds half away from zero, matching how the platform quotes fees.
func roundPct(amount int64, pct float64) int64 {
	return int64(math.Round(float64(amount) * pct / 100))
}
