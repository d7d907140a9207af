package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityBidSubmitted       ActivityType = "bid_submitted"
	ActivityBidAccepted        ActivityType = "bid_accepted"
	ActivityBidRejected        ActivityType = "bid_rejected"
	ActivityBidUnderReview     ActivityType = "bid_under_review"
	ActivityNegotiationInput   ActivityType = "negotiation_input_posted"
	ActivityNegotiationAgreed  ActivityType = "negotiation_completed"
	ActivityNegotiationClosed  ActivityType = "negotiation_cancelled"
	ActivityQueryPosted        ActivityType = "query_posted"
	ActivityReplyPosted        ActivityType = "reply_posted"
	ActivityWorkOrderCreated   ActivityType = "work_order_created"
	ActivityPaymentRecorded    ActivityType = "payment_recorded"
	ActivitySignatureRecorded  ActivityType = "signature_recorded"
	ActivityDisputeRaised      ActivityType = "dispute_raised"
	ActivityDisputeResolved    ActivityType = "dispute_resolved"
	ActivityWorkOrderCompleted ActivityType = "work_order_completed"
	ActivityFeeAdviceRequested ActivityType = "fee_advice_requested"
	ActivityFeeAdviceAccepted  ActivityType = "fee_advice_accepted"
	ActivityFeeAdviceRejected  ActivityType = "fee_advice_rejected"
	ActivityFeeAdvicePaid      ActivityType = "fee_advice_paid"
	ActivityMilestoneAdded     ActivityType = "milestone_added"
	ActivityMilestoneUpdated   ActivityType = "milestone_updated"
	ActivityDocumentAttached   ActivityType = "document_attached"
	ActivityCommentAdded       ActivityType = "comment_added"
	ActivityFeedbackProvided   ActivityType = "feedback_provided"
	ActivityInfoRequested      ActivityType = "information_requested"
	ActivityInfoResponded      ActivityType = "information_responded"
	ActivityTeamMemberAdded    ActivityType = "team_member_added"
	ActivityTeamMemberRemoved  ActivityType = "team_member_removed"
)

// ActivityRecord is the audit trail entry. Records are append-only and are
// the only authorized history of a work order.
type ActivityRecord struct {
	ID              uuid.UUID         `json:"id"`
	Type            ActivityType      `json:"type"`
	Description     string            `json:"description"`
	PerformedBy     uuid.UUID         `json:"performed_by"`
	PerformedByType ActorType         `json:"performed_by_type"`
	Timestamp       time.Time         `json:"timestamp"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
