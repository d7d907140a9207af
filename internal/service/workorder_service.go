package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/repository"
)

// WorkOrderService drives an engagement from proforma through payment,
// signature, execution and closure. Commands mutate a clone of the aggregate
// and persist it only when accepted, so a rejected command leaves the stored
// state untouched. Every accepted command appends exactly one activity record
// and publishes one notification event.
type WorkOrderService struct {
	store    WorkOrderStore
	notifier Notifier
	rates    model.FeeRates
}

func NewWorkOrderService(store WorkOrderStore, notifier Notifier, rates model.FeeRates) *WorkOrderService {
	return &WorkOrderService{store: store, notifier: notifier, rates: rates}
}

type CreateDraftInput struct {
	Seeker       model.Party
	Provider     model.Party
	ScopeOfWork  string
	Deliverables []string
	StartAt      time.Time
	ExpectedAt   time.Time

	ProfessionalFee   int64
	Reimbursements    int64
	RegulatoryPayouts int64
	OPE               int64
	Schedule          []model.PaymentStage
}

// CreateDraft opens a provider-initiated engagement in proforma.
func (s *WorkOrderService) CreateDraft(ctx context.Context, principal model.Principal, input CreateDraftInput) (*model.WorkOrder, error) {
	if !principal.IsProvider() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.create(ctx, principal, model.WorkOrderProviderInitiated, nil, input)
}

// CreateFromBid instantiates a seeker-initiated engagement from an accepted
// bid. It is called by the bid registry once the bid transition succeeded.
func (s *WorkOrderService) CreateFromBid(ctx context.Context, principal model.Principal, bid *model.Bid, input CreateDraftInput) (*model.WorkOrder, error) {
	bidID := bid.ID
	return s.create(ctx, principal, model.WorkOrderSeekerInitiated, &bidID, fromBidInput(bid, input))
}

// ValidateFromBid checks that accepting the bid with this input would yield a
// valid work order. Nothing is persisted. The bid registry calls it before
// committing the bid transition, so a bad draft never strands a bid in a
// terminal status with no work order.
func (s *WorkOrderService) ValidateFromBid(bid *model.Bid, input CreateDraftInput) error {
	_, err := s.validateDraft(fromBidInput(bid, input))
	return err
}

// fromBidInput fills the draft fields the seeker does not supply from the bid
// being accepted: provider identity, financials and the delivery date.
func fromBidInput(bid *model.Bid, input CreateDraftInput) CreateDraftInput {
	input.Provider = model.Party{
		UserID: bid.Bidder.UserID,
		OrgID:  bid.Bidder.OrgID,
		Name:   bid.Bidder.Name,
		Email:  bid.Bidder.Email,
		Phone:  bid.Bidder.Phone,
		TaxID:  bid.Bidder.TaxID,
	}
	if input.ProfessionalFee == 0 {
		input.ProfessionalFee = bid.Breakdown.ProfessionalFee
		input.Reimbursements = bid.Breakdown.Reimbursements
		input.RegulatoryPayouts = bid.Breakdown.RegulatoryPayouts
		input.OPE = bid.Breakdown.OPE
	}
	if input.ExpectedAt.IsZero() {
		input.ExpectedAt = bid.DeliveryDate
	}
	return input
}

func (s *WorkOrderService) validateDraft(input CreateDraftInput) (model.FinancialBreakdown, error) {
	if input.ScopeOfWork == "" {
		return model.FinancialBreakdown{}, fmt.Errorf("%w: scope of work is required", ErrInvalidInput)
	}
	if input.ProfessionalFee <= 0 {
		return model.FinancialBreakdown{}, fmt.Errorf("%w: professional fee must be positive", ErrInvalidInput)
	}
	if len(input.Schedule) == 0 {
		return model.FinancialBreakdown{}, fmt.Errorf("%w: at least one payment stage is required", ErrInvalidInput)
	}

	breakdown, err := model.ComputeBreakdown(
		input.ProfessionalFee,
		input.Reimbursements,
		input.RegulatoryPayouts,
		input.OPE,
		input.Schedule,
		s.rates,
	)
	if err != nil {
		return model.FinancialBreakdown{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return breakdown, nil
}

func (s *WorkOrderService) create(ctx context.Context, principal model.Principal, woType model.WorkOrderType, bidID *uuid.UUID, input CreateDraftInput) (*model.WorkOrder, error) {
	breakdown, err := s.validateDraft(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wo := &model.WorkOrder{
		ID:          uuid.New(),
		Type:        woType,
		Status:      model.WorkOrderProforma,
		BidID:       bidID,
		Seeker:      input.Seeker,
		Provider:    input.Provider,
		ScopeOfWork: input.ScopeOfWork,
		Deliverables: input.Deliverables,
		Timeline: model.Timeline{
			StartAt:              input.StartAt,
			ExpectedCompletionAt: input.ExpectedAt,
		},
		Breakdown: breakdown,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	wo.Reference = buildReference(wo.ID, now)
	appendActivity(wo, principal, model.ActivityWorkOrderCreated,
		fmt.Sprintf("work order %s created in proforma", wo.Reference),
		map[string]string{"type": string(woType), "total_amount": fmt.Sprintf("%d", breakdown.TotalAmount)})

	if err := s.store.Create(ctx, wo); err != nil {
		return nil, err
	}
	s.publish(ctx, wo, wo.Activities[len(wo.Activities)-1])
	return wo, nil
}

type RecordPaymentInput struct {
	Amount    int64
	Method    string
	Reference string
}

// RecordPayment settles the next outstanding payment term. The amount must
// match that term exactly; partial payments are rejected.
func (s *WorkOrderService) RecordPayment(ctx context.Context, principal model.Principal, id uuid.UUID, input RecordPaymentInput) (*model.WorkOrder, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && principal.OrgID != wo.Seeker.OrgID {
		return nil, ErrPermissionDenied
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionRecordPayment); err != nil {
		return nil, err
	}

	next := wo.Breakdown.NextDueTerm()
	if next == -1 {
		return nil, fmt.Errorf("%w: no outstanding payment term", ErrInvalidInput)
	}
	term := &wo.Breakdown.PaymentTerms[next]
	if input.Amount != term.Amount {
		return nil, fmt.Errorf("%w: amount %d does not match the %q term amount %d",
			ErrInvalidInput, input.Amount, term.StageLabel, term.Amount)
	}

	now := time.Now().UTC()
	term.Status = model.PaymentTermPaid
	term.PaidDate = &now
	wo.Breakdown.MoneyReceipts = append(wo.Breakdown.MoneyReceipts, model.MoneyReceipt{
		ID:         uuid.New(),
		Amount:     input.Amount,
		Method:     input.Method,
		Reference:  input.Reference,
		ReceivedAt: now,
	})

	if wo.Breakdown.UpfrontSettled() {
		wo.Status = model.WorkOrderSignaturePending
	} else {
		wo.Status = model.WorkOrderPaymentPending
	}

	appendActivity(wo, principal, model.ActivityPaymentRecorded,
		fmt.Sprintf("payment of %d recorded against term %q", input.Amount, term.StageLabel),
		map[string]string{"amount": fmt.Sprintf("%d", input.Amount), "stage": term.StageLabel})
	return s.save(ctx, wo)
}

// Sign records one party's signature. Re-signing by an already-signed party
// is a no-op success and does not touch the stored aggregate.
func (s *WorkOrderService) Sign(ctx context.Context, principal model.Principal, id uuid.UUID, sigType model.SignatureType) (*model.WorkOrder, error) {
	switch sigType {
	case model.SignatureElectronic, model.SignatureDigital, model.SignatureWet:
	case "":
		return nil, fmt.Errorf("%w: signature type is required", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown signature type %q", ErrInvalidInput, sigType)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var slot **model.Signature
	var side model.ActorType
	switch {
	case principal.OrgID == wo.Seeker.OrgID:
		slot, side = &wo.Signatures.Seeker, model.ActorSeeker
	case principal.OrgID == wo.Provider.OrgID:
		slot, side = &wo.Signatures.Provider, model.ActorProvider
	default:
		return nil, ErrPermissionDenied
	}

	if err := checkWorkOrderAction(wo.Status, WorkOrderActionSign); err != nil {
		return nil, err
	}
	if *slot != nil {
		return wo, nil
	}

	*slot = &model.Signature{SignedAt: time.Now().UTC(), Type: sigType}
	if wo.Signatures.Complete() {
		wo.Status = model.WorkOrderInProgress
	}
	appendActivity(wo, principal, model.ActivitySignatureRecorded,
		fmt.Sprintf("%s signature recorded", side),
		map[string]string{"side": string(side), "signature_type": string(sigType)})
	return s.save(ctx, wo)
}

type RaiseDisputeInput struct {
	Reason      model.DisputeReason
	Description string
}

func (s *WorkOrderService) RaiseDispute(ctx context.Context, principal model.Principal, id uuid.UUID, input RaiseDisputeInput) (*model.WorkOrder, error) {
	if !input.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown dispute reason %q", ErrInvalidInput, input.Reason)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionRaiseDispute); err != nil {
		return nil, err
	}

	dispute := model.Dispute{
		ID:           uuid.New(),
		RaisedBy:     principal.UserID,
		RaisedByType: principal.ActorType(),
		Reason:       input.Reason,
		Description:  input.Description,
		Status:       model.DisputeActive,
		PriorStatus:  wo.Status,
		RaisedAt:     time.Now().UTC(),
	}
	wo.Disputes = append(wo.Disputes, dispute)
	wo.Status = model.WorkOrderDisputed

	appendActivity(wo, principal, model.ActivityDisputeRaised,
		fmt.Sprintf("dispute raised: %s", input.Reason),
		map[string]string{"dispute_id": dispute.ID.String(), "reason": string(input.Reason)})
	return s.save(ctx, wo)
}

type Resolution string

const (
	ResolutionResume   Resolution = "resume"
	ResolutionComplete Resolution = "complete"
)

// ResolveDispute closes one dispute. With resolution "resume" the work order
// returns to the status it held when that dispute was raised; "complete"
// forces completion. Other disputes still active keep the order disputed.
func (s *WorkOrderService) ResolveDispute(ctx context.Context, principal model.Principal, id, disputeID uuid.UUID, resolution Resolution, note string) (*model.WorkOrder, error) {
	if resolution != ResolutionResume && resolution != ResolutionComplete {
		return nil, fmt.Errorf("%w: unknown resolution %q", ErrInvalidInput, resolution)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionResolveDispute); err != nil {
		return nil, err
	}

	idx := -1
	for i, d := range wo.Disputes {
		if d.ID == disputeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: dispute %s", ErrNotFound, disputeID)
	}
	dispute := &wo.Disputes[idx]
	if dispute.Status != model.DisputeActive {
		return nil, fmt.Errorf("%w: dispute %s is already resolved", ErrInvalidTransition, disputeID)
	}

	now := time.Now().UTC()
	dispute.Status = model.DisputeResolved
	dispute.Resolution = note
	dispute.ResolvedAt = &now

	if wo.ActiveDisputes() == 0 {
		if resolution == ResolutionComplete {
			wo.Status = model.WorkOrderCompleted
			wo.Timeline.ActualCompletionAt = &now
		} else {
			wo.Status = dispute.PriorStatus
		}
	}

	appendActivity(wo, principal, model.ActivityDisputeResolved,
		fmt.Sprintf("dispute resolved with %q", resolution),
		map[string]string{"dispute_id": disputeID.String(), "resolution": string(resolution)})
	return s.save(ctx, wo)
}

// MarkComplete closes an engagement. Milestones are not required to be
// completed first; outstanding ones are only counted into the record.
func (s *WorkOrderService) MarkComplete(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionMarkComplete); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wo.Status = model.WorkOrderCompleted
	wo.Timeline.ActualCompletionAt = &now

	open := 0
	for _, m := range wo.Milestones {
		if m.Status != model.MilestoneCompleted {
			open++
		}
	}
	appendActivity(wo, principal, model.ActivityWorkOrderCompleted,
		"work order marked complete",
		map[string]string{"open_milestones": fmt.Sprintf("%d", open)})
	return s.save(ctx, wo)
}

type FeeAdviceInput struct {
	Amount      int64
	Description string
}

func (s *WorkOrderService) RequestFeeAdvice(ctx context.Context, principal model.Principal, id uuid.UUID, input FeeAdviceInput) (*model.WorkOrder, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && principal.OrgID != wo.Provider.OrgID {
		return nil, ErrPermissionDenied
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionFeeAdvice); err != nil {
		return nil, err
	}

	advice := model.FeeAdvice{
		ID:          uuid.New(),
		Amount:      input.Amount,
		Description: input.Description,
		Status:      model.FeeAdvicePending,
		RequestedAt: time.Now().UTC(),
	}
	wo.Breakdown.FeeAdvices = append(wo.Breakdown.FeeAdvices, advice)
	appendActivity(wo, principal, model.ActivityFeeAdviceRequested,
		fmt.Sprintf("fee advice of %d requested", input.Amount),
		map[string]string{"fee_advice_id": advice.ID.String(), "amount": fmt.Sprintf("%d", input.Amount)})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) AcceptFeeAdvice(ctx context.Context, principal model.Principal, id, adviceID uuid.UUID) (*model.WorkOrder, error) {
	return s.decideFeeAdvice(ctx, principal, id, adviceID, model.FeeAdviceAccepted, "")
}

func (s *WorkOrderService) RejectFeeAdvice(ctx context.Context, principal model.Principal, id, adviceID uuid.UUID, reason string) (*model.WorkOrder, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}
	return s.decideFeeAdvice(ctx, principal, id, adviceID, model.FeeAdviceRejected, reason)
}

func (s *WorkOrderService) MarkFeeAdvicePaid(ctx context.Context, principal model.Principal, id, adviceID uuid.UUID) (*model.WorkOrder, error) {
	return s.decideFeeAdvice(ctx, principal, id, adviceID, model.FeeAdvicePaid, "")
}

// Accepted fee advices are additive obligations settled separately; they
// never rewrite the derived total or already-recorded payment terms.
func (s *WorkOrderService) decideFeeAdvice(ctx context.Context, principal model.Principal, id, adviceID uuid.UUID, target model.FeeAdviceStatus, reason string) (*model.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && principal.OrgID != wo.Seeker.OrgID {
		return nil, ErrPermissionDenied
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionFeeAdvice); err != nil {
		return nil, err
	}

	idx := -1
	for i, advice := range wo.Breakdown.FeeAdvices {
		if advice.ID == adviceID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: fee advice %s", ErrNotFound, adviceID)
	}
	advice := &wo.Breakdown.FeeAdvices[idx]
	if err := feeAdviceTransition(advice.Status, target); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	advice.Status = target
	advice.Reason = reason
	advice.DecidedAt = &now

	activityType := model.ActivityFeeAdviceAccepted
	switch target {
	case model.FeeAdviceRejected:
		activityType = model.ActivityFeeAdviceRejected
	case model.FeeAdvicePaid:
		activityType = model.ActivityFeeAdvicePaid
	}
	appendActivity(wo, principal, activityType,
		fmt.Sprintf("fee advice %s %s", adviceID, target),
		map[string]string{"fee_advice_id": adviceID.String()})
	return s.save(ctx, wo)
}

type AddMilestoneInput struct {
	Title        string
	DeliveryDate time.Time
}

func (s *WorkOrderService) AddMilestone(ctx context.Context, principal model.Principal, id uuid.UUID, input AddMilestoneInput) (*model.WorkOrder, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: milestone title is required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionMilestone); err != nil {
		return nil, err
	}

	milestone := model.Milestone{
		ID:           uuid.New(),
		Title:        input.Title,
		DeliveryDate: input.DeliveryDate,
		Status:       model.MilestonePending,
	}
	wo.Milestones = append(wo.Milestones, milestone)
	appendActivity(wo, principal, model.ActivityMilestoneAdded,
		fmt.Sprintf("milestone %q added", input.Title),
		map[string]string{"milestone_id": milestone.ID.String()})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) UpdateMilestoneStatus(ctx context.Context, principal model.Principal, id, milestoneID uuid.UUID, target model.MilestoneStatus) (*model.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionMilestone); err != nil {
		return nil, err
	}
	milestone, err := findMilestone(wo, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := milestoneTransition(milestone.Status, target); err != nil {
		return nil, err
	}

	milestone.Status = target
	appendActivity(wo, principal, model.ActivityMilestoneUpdated,
		fmt.Sprintf("milestone %q moved to %s", milestone.Title, target),
		map[string]string{"milestone_id": milestoneID.String(), "status": string(target)})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) AttachMilestoneDocument(ctx context.Context, principal model.Principal, id, milestoneID, documentID uuid.UUID) (*model.WorkOrder, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	milestone, err := findMilestone(wo, milestoneID)
	if err != nil {
		return nil, err
	}
	if milestone.Status == model.MilestoneCompleted {
		return nil, fmt.Errorf("%w: milestone %q is completed", ErrInvalidTransition, milestone.Title)
	}

	milestone.Documents = append(milestone.Documents, documentID)
	appendActivity(wo, principal, model.ActivityDocumentAttached,
		fmt.Sprintf("document attached to milestone %q", milestone.Title),
		map[string]string{"milestone_id": milestoneID.String(), "document_id": documentID.String()})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) AddMilestoneComment(ctx context.Context, principal model.Principal, id, milestoneID uuid.UUID, message string) (*model.WorkOrder, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: comment message is required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	milestone, err := findMilestone(wo, milestoneID)
	if err != nil {
		return nil, err
	}
	if milestone.Status == model.MilestoneCompleted {
		return nil, fmt.Errorf("%w: milestone %q is completed", ErrInvalidTransition, milestone.Title)
	}

	milestone.Comments = append(milestone.Comments, model.MilestoneComment{
		ID:         uuid.New(),
		AuthorID:   principal.UserID,
		AuthorType: principal.ActorType(),
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	})
	appendActivity(wo, principal, model.ActivityCommentAdded,
		fmt.Sprintf("comment added to milestone %q", milestone.Title),
		map[string]string{"milestone_id": milestoneID.String()})
	return s.save(ctx, wo)
}

type FeedbackInput struct {
	Stage   model.FeedbackStage
	Rating  int
	Summary string
}

// ProvideFeedback appends a rating entry. Feedback is a log: any party may
// leave any number of entries at any stage.
func (s *WorkOrderService) ProvideFeedback(ctx context.Context, principal model.Principal, id uuid.UUID, input FeedbackInput) (*model.WorkOrder, error) {
	if input.Stage != model.FeedbackDuringExecution && input.Stage != model.FeedbackOnCompletion {
		return nil, fmt.Errorf("%w: unknown feedback stage %q", ErrInvalidInput, input.Stage)
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionFeedback); err != nil {
		return nil, err
	}

	entry := model.Feedback{
		ID:             uuid.New(),
		ProvidedBy:     principal.UserID,
		ProvidedByType: principal.ActorType(),
		Stage:          input.Stage,
		Rating:         input.Rating,
		Summary:        input.Summary,
		CreatedAt:      time.Now().UTC(),
	}
	wo.Feedback = append(wo.Feedback, entry)
	appendActivity(wo, principal, model.ActivityFeedbackProvided,
		fmt.Sprintf("feedback provided at stage %s", input.Stage),
		map[string]string{"feedback_id": entry.ID.String(), "rating": fmt.Sprintf("%d", input.Rating)})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) RequestInformation(ctx context.Context, principal model.Principal, id uuid.UUID, subject, message string) (*model.WorkOrder, error) {
	if subject == "" || message == "" {
		return nil, fmt.Errorf("%w: subject and message are required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionInformation); err != nil {
		return nil, err
	}

	req := model.InformationRequest{
		ID:          uuid.New(),
		RequestedBy: principal.UserID,
		Subject:     subject,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	wo.InformationRequests = append(wo.InformationRequests, req)
	appendActivity(wo, principal, model.ActivityInfoRequested,
		fmt.Sprintf("information requested: %s", subject),
		map[string]string{"request_id": req.ID.String()})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) RespondInformation(ctx context.Context, principal model.Principal, id, requestID uuid.UUID, response string) (*model.WorkOrder, error) {
	if response == "" {
		return nil, fmt.Errorf("%w: response is required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionInformation); err != nil {
		return nil, err
	}

	idx := -1
	for i, req := range wo.InformationRequests {
		if req.ID == requestID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: information request %s", ErrNotFound, requestID)
	}
	req := &wo.InformationRequests[idx]
	if req.RespondedAt != nil {
		return nil, fmt.Errorf("%w: information request %s already answered", ErrInvalidTransition, requestID)
	}

	now := time.Now().UTC()
	req.Response = response
	req.RespondedAt = &now
	appendActivity(wo, principal, model.ActivityInfoResponded,
		fmt.Sprintf("information request %q answered", req.Subject),
		map[string]string{"request_id": requestID.String()})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) AddTeamMember(ctx context.Context, principal model.Principal, id uuid.UUID, member model.TeamMember) (*model.WorkOrder, error) {
	if member.UserID == uuid.Nil || member.Name == "" {
		return nil, fmt.Errorf("%w: member user id and name are required", ErrInvalidInput)
	}
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionTeam); err != nil {
		return nil, err
	}
	for _, existing := range wo.TeamMembers {
		if existing.UserID == member.UserID {
			return nil, fmt.Errorf("%w: user %s is already a team member", ErrInvalidInput, member.UserID)
		}
	}

	member.AddedAt = time.Now().UTC()
	wo.TeamMembers = append(wo.TeamMembers, member)
	appendActivity(wo, principal, model.ActivityTeamMemberAdded,
		fmt.Sprintf("team member %s added", member.Name),
		map[string]string{"member_id": member.UserID.String()})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) RemoveTeamMember(ctx context.Context, principal model.Principal, id, userID uuid.UUID) (*model.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	if err := checkWorkOrderAction(wo.Status, WorkOrderActionTeam); err != nil {
		return nil, err
	}

	idx := -1
	for i, member := range wo.TeamMembers {
		if member.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: team member %s", ErrNotFound, userID)
	}
	removed := wo.TeamMembers[idx]
	wo.TeamMembers = append(wo.TeamMembers[:idx], wo.TeamMembers[idx+1:]...)
	appendActivity(wo, principal, model.ActivityTeamMemberRemoved,
		fmt.Sprintf("team member %s removed", removed.Name),
		map[string]string{"member_id": userID.String()})
	return s.save(ctx, wo)
}

func (s *WorkOrderService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(principal, wo); err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) List(ctx context.Context, principal model.Principal, filter repository.WorkOrderFilter) ([]model.WorkOrder, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.store.List(ctx, filter)
}

func (s *WorkOrderService) load(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	wo, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, id)
		}
		return nil, err
	}
	// Work on a copy so a rejected command never leaks partial writes.
	return wo.Clone(), nil
}

func (s *WorkOrderService) save(ctx context.Context, wo *model.WorkOrder) (*model.WorkOrder, error) {
	wo.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, wo); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: work order %s was modified concurrently", ErrConflict, wo.ID)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: work order %s", ErrNotFound, wo.ID)
		}
		return nil, err
	}
	wo.Version++
	s.publish(ctx, wo, wo.Activities[len(wo.Activities)-1])
	return wo, nil
}

func (s *WorkOrderService) publish(ctx context.Context, wo *model.WorkOrder, activity model.ActivityRecord) {
	if s.notifier == nil {
		return
	}
	bidID := uuid.Nil
	if wo.BidID != nil {
		bidID = *wo.BidID
	}
	s.notifier.Publish(ctx, Event{WorkOrderID: wo.ID, BidID: bidID, Activity: activity})
}

func (s *WorkOrderService) requireParty(principal model.Principal, wo *model.WorkOrder) error {
	if principal.IsAdmin() {
		return nil
	}
	if principal.OrgID == wo.Seeker.OrgID || principal.OrgID == wo.Provider.OrgID {
		return nil
	}
	for _, member := range wo.TeamMembers {
		if member.UserID == principal.UserID {
			return nil
		}
	}
	return ErrPermissionDenied
}

func appendActivity(wo *model.WorkOrder, principal model.Principal, activityType model.ActivityType, description string, metadata map[string]string) {
	wo.Activities = append(wo.Activities, model.ActivityRecord{
		ID:              uuid.New(),
		Type:            activityType,
		Description:     description,
		PerformedBy:     principal.UserID,
		PerformedByType: principal.ActorType(),
		Timestamp:       time.Now().UTC(),
		Metadata:        metadata,
	})
}

func findMilestone(wo *model.WorkOrder, milestoneID uuid.UUID) (*model.Milestone, error) {
	for i := range wo.Milestones {
		if wo.Milestones[i].ID == milestoneID {
			return &wo.Milestones[i], nil
		}
	}
	return nil, fmt.Errorf("%w: milestone %s", ErrNotFound, milestoneID)
}

func buildReference(id uuid.UUID, now time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("ENG-%d-%s", now.Year(), short)
}
