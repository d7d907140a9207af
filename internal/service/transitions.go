package service

import (
	"fmt"

	"github.com/nurpe/engagements/internal/model"
)

// The tables below are the only transition authority. No other code path may
// assign a status that bypasses them.

type BidAction string

const (
	BidActionSubmit      BidAction = "submit"
	BidActionAccept      BidAction = "accept"
	BidActionReject      BidAction = "reject"
	BidActionRenegotiate BidAction = "renegotiate"
)

var bidTransitions = map[BidAction]map[model.BidStatus]model.BidStatus{
	BidActionSubmit: {
		model.BidStatusDraft: model.BidStatusSubmitted,
	},
	BidActionAccept: {
		model.BidStatusSubmitted:   model.BidStatusAccepted,
		model.BidStatusUnderReview: model.BidStatusAccepted,
	},
	BidActionReject: {
		model.BidStatusDraft:       model.BidStatusRejected,
		model.BidStatusSubmitted:   model.BidStatusRejected,
		model.BidStatusUnderReview: model.BidStatusRejected,
	},
	BidActionRenegotiate: {
		model.BidStatusDraft:       model.BidStatusUnderReview,
		model.BidStatusSubmitted:   model.BidStatusUnderReview,
		model.BidStatusUnderReview: model.BidStatusUnderReview,
	},
}

func bidTransition(status model.BidStatus, action BidAction) (model.BidStatus, error) {
	next, ok := bidTransitions[action][status]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a bid in status %q", ErrInvalidTransition, action, status)
	}
	return next, nil
}

type WorkOrderAction string

const (
	WorkOrderActionRecordPayment   WorkOrderAction = "record_payment"
	WorkOrderActionSign            WorkOrderAction = "sign"
	WorkOrderActionRaiseDispute    WorkOrderAction = "raise_dispute"
	WorkOrderActionResolveDispute  WorkOrderAction = "resolve_dispute"
	WorkOrderActionMarkComplete    WorkOrderAction = "mark_complete"
	WorkOrderActionFeeAdvice       WorkOrderAction = "fee_advice"
	WorkOrderActionMilestone       WorkOrderAction = "milestone"
	WorkOrderActionFeedback        WorkOrderAction = "feedback"
	WorkOrderActionInformation     WorkOrderAction = "information"
	WorkOrderActionTeam            WorkOrderAction = "team"
)

// workOrderActionSources lists the statuses each lifecycle action is legal
// from. The resulting status depends on aggregate state (payment coverage,
// signature completeness, dispute count), so rows carry sources only.
var workOrderActionSources = map[WorkOrderAction]map[model.WorkOrderStatus]bool{
	WorkOrderActionRecordPayment: {
		model.WorkOrderProforma:       true,
		model.WorkOrderPaymentPending: true,
	},
	WorkOrderActionSign: {
		model.WorkOrderSignaturePending: true,
	},
	WorkOrderActionRaiseDispute: {
		model.WorkOrderPaymentPending:   true,
		model.WorkOrderSignaturePending: true,
		model.WorkOrderInProgress:       true,
	},
	WorkOrderActionResolveDispute: {
		model.WorkOrderDisputed: true,
	},
	WorkOrderActionMarkComplete: {
		model.WorkOrderInProgress: true,
	},
	WorkOrderActionFeeAdvice: {
		model.WorkOrderInProgress: true,
		model.WorkOrderDisputed:   true,
	},
	WorkOrderActionMilestone: {
		model.WorkOrderProforma:         true,
		model.WorkOrderPaymentPending:   true,
		model.WorkOrderSignaturePending: true,
		model.WorkOrderInProgress:       true,
		model.WorkOrderDisputed:         true,
	},
	WorkOrderActionFeedback: {
		model.WorkOrderInProgress: true,
		model.WorkOrderDisputed:   true,
		model.WorkOrderCompleted:  true,
	},
	WorkOrderActionInformation: {
		model.WorkOrderProforma:         true,
		model.WorkOrderPaymentPending:   true,
		model.WorkOrderSignaturePending: true,
		model.WorkOrderInProgress:       true,
		model.WorkOrderDisputed:         true,
	},
	WorkOrderActionTeam: {
		model.WorkOrderProforma:         true,
		model.WorkOrderPaymentPending:   true,
		model.WorkOrderSignaturePending: true,
		model.WorkOrderInProgress:       true,
		model.WorkOrderDisputed:         true,
	},
}

func checkWorkOrderAction(status model.WorkOrderStatus, action WorkOrderAction) error {
	if !workOrderActionSources[action][status] {
		return fmt.Errorf("%w: cannot %s a work order in status %q", ErrInvalidTransition, action, status)
	}
	return nil
}

var negotiationTransitions = map[model.NegotiationStatus]map[model.NegotiationStatus]bool{
	model.NegotiationActive: {
		model.NegotiationCompleted: true,
		model.NegotiationCancelled: true,
	},
}

func negotiationTransition(from, to model.NegotiationStatus) error {
	if !negotiationTransitions[from][to] {
		return fmt.Errorf("%w: negotiation thread cannot move from %q to %q", ErrInvalidTransition, from, to)
	}
	return nil
}

// Milestones move forward only, one step at a time.
var milestoneTransitions = map[model.MilestoneStatus]map[model.MilestoneStatus]bool{
	model.MilestonePending: {
		model.MilestoneInProgress: true,
	},
	model.MilestoneInProgress: {
		model.MilestoneCompleted: true,
	},
}

func milestoneTransition(from, to model.MilestoneStatus) error {
	if !milestoneTransitions[from][to] {
		return fmt.Errorf("%w: milestone cannot move from %q to %q", ErrInvalidTransition, from, to)
	}
	return nil
}

var feeAdviceTransitions = map[model.FeeAdviceStatus]map[model.FeeAdviceStatus]bool{
	model.FeeAdvicePending: {
		model.FeeAdviceAccepted: true,
		model.FeeAdviceRejected: true,
	},
	model.FeeAdviceAccepted: {
		model.FeeAdvicePaid: true,
	},
}

func feeAdviceTransition(from, to model.FeeAdviceStatus) error {
	if !feeAdviceTransitions[from][to] {
		return fmt.Errorf("%w: fee advice cannot move from %q to %q", ErrInvalidTransition, from, to)
	}
	return nil
}
