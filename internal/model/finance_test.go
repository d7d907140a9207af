package model

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeBreakdown(t *testing.T) {
	breakdown, err := ComputeBreakdown(150000, 5000, 2000, 1000, nil, DefaultFeeRates())
	require.NoError(t, err)

	require.Equal(t, int64(150000), breakdown.ProfessionalFee)
	require.Equal(t, int64(15000), breakdown.PlatformFee)
	require.Equal(t, int64(29700), breakdown.GST)
	require.Equal(t, int64(202700), breakdown.TotalAmount)
	require.Empty(t, breakdown.PaymentTerms)
}

func TestComputeBreakdownRejectsNegatives(t *testing.T) {
	for _, components := range [][4]int64{
		{-1, 0, 0, 0},
		{100, -5, 0, 0},
		{100, 0, -5, 0},
		{100, 0, 0, -5},
	} {
		_, err := ComputeBreakdown(components[0], components[1], components[2], components[3], nil, DefaultFeeRates())
		require.Error(t, err)
	}
}

func TestComputeBreakdownTotalIsComponentSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		fee := rng.Int63n(10_000_000)
		reimb := rng.Int63n(500_000)
		reg := rng.Int63n(500_000)
		ope := rng.Int63n(100_000)

		breakdown, err := ComputeBreakdown(fee, reimb, reg, ope, nil, DefaultFeeRates())
		require.NoError(t, err)

		sum := breakdown.ProfessionalFee + breakdown.PlatformFee + breakdown.GST +
			breakdown.Reimbursements + breakdown.RegulatoryPayouts + breakdown.OPE
		require.Equal(t, sum, breakdown.TotalAmount)
	}
}

func TestDeriveTermsSumToTotal(t *testing.T) {
	schedule := []PaymentStage{
		{Label: "Advance", Percent: 33.33, Upfront: true, DueDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{Label: "Interim", Percent: 33.33, DueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		{Label: "Final", Percent: 33.34, DueDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
	}
	breakdown, err := ComputeBreakdown(99999, 0, 0, 0, schedule, DefaultFeeRates())
	require.NoError(t, err)
	require.Len(t, breakdown.PaymentTerms, 3)

	sum := int64(0)
	for _, term := range breakdown.PaymentTerms {
		sum += term.Amount
		require.Equal(t, PaymentTermBalanceDue, term.Status)
	}
	require.Equal(t, breakdown.TotalAmount, sum)
}

func TestDeriveTermsValidation(t *testing.T) {
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := ComputeBreakdown(100000, 0, 0, 0, []PaymentStage{
		{Label: "Half", Percent: 50, DueDate: due},
	}, DefaultFeeRates())
	require.Error(t, err)

	_, err = ComputeBreakdown(100000, 0, 0, 0, []PaymentStage{
		{Label: "All", Percent: 110, DueDate: due},
		{Label: "Refund", Percent: -10, DueDate: due},
	}, DefaultFeeRates())
	require.Error(t, err)
}

func TestNextDueTermFollowsDueDates(t *testing.T) {
	later := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	breakdown := FinancialBreakdown{PaymentTerms: []PaymentTerm{
		{StageLabel: "Final", Amount: 50, Status: PaymentTermBalanceDue, DueDate: later},
		{StageLabel: "Advance", Amount: 50, Status: PaymentTermBalanceDue, DueDate: earlier},
	}}
	require.Equal(t, 1, breakdown.NextDueTerm())

	breakdown.PaymentTerms[1].Status = PaymentTermPaid
	require.Equal(t, 0, breakdown.NextDueTerm())

	breakdown.PaymentTerms[0].Status = PaymentTermPaid
	require.Equal(t, -1, breakdown.NextDueTerm())
}

func TestUpfrontSettled(t *testing.T) {
	breakdown := FinancialBreakdown{PaymentTerms: []PaymentTerm{
		{StageLabel: "Advance", Upfront: true, Status: PaymentTermBalanceDue},
		{StageLabel: "Final", Status: PaymentTermBalanceDue},
	}}
	require.False(t, breakdown.UpfrontSettled())

	breakdown.PaymentTerms[0].Status = PaymentTermPaid
	require.True(t, breakdown.UpfrontSettled())

	// No upfront terms at all counts as settled.
	require.True(t, FinancialBreakdown{}.UpfrontSettled())
}

func TestRoundPctHalfAwayFromZero(t *testing.T) {
	require.Equal(t, int64(13), roundPct(125, 10))
	require.Equal(t, int64(12), roundPct(124, 10))
	require.Equal(t, int64(0), roundPct(0, 18))
}
