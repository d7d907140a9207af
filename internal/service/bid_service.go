package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/repository"
)

// BidService is the registry for bids submitted against a service request.
// Nothing here prevents two bids on the same request from being accepted;
// each acceptance yields its own work order.
type BidService struct {
	bids         BidStore
	negotiations NegotiationStore
	orders       *WorkOrderService
	notifier     Notifier
	rates        model.FeeRates
}

func NewBidService(bids BidStore, negotiations NegotiationStore, orders *WorkOrderService, notifier Notifier, rates model.FeeRates) *BidService {
	return &BidService{bids: bids, negotiations: negotiations, orders: orders, notifier: notifier, rates: rates}
}

type SubmitBidInput struct {
	ServiceRequestID  uuid.UUID
	Bidder            model.BidderProfile
	ProfessionalFee   int64
	Reimbursements    int64
	RegulatoryPayouts int64
	OPE               int64
	DeliveryDate      time.Time
}

func (s *BidService) Submit(ctx context.Context, principal model.Principal, input SubmitBidInput) (*model.Bid, error) {
	if !principal.IsProvider() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.ServiceRequestID == uuid.Nil {
		return nil, fmt.Errorf("%w: service request id is required", ErrInvalidInput)
	}
	if input.Bidder.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: bidder profile is required", ErrInvalidInput)
	}
	if input.ProfessionalFee <= 0 {
		return nil, fmt.Errorf("%w: professional fee must be positive", ErrInvalidInput)
	}
	if input.DeliveryDate.IsZero() {
		return nil, fmt.Errorf("%w: delivery date is required", ErrInvalidInput)
	}

	exists, err := s.bids.ExistsForBidder(ctx, input.ServiceRequestID, input.Bidder.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: bid already submitted for this request", ErrInvalidInput)
	}

	breakdown, err := model.ComputeBreakdown(input.ProfessionalFee, input.Reimbursements, input.RegulatoryPayouts, input.OPE, nil, s.rates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	bid := &model.Bid{
		ID:               uuid.New(),
		ServiceRequestID: input.ServiceRequestID,
		Bidder:           input.Bidder,
		Breakdown:        breakdown,
		DeliveryDate:     input.DeliveryDate,
		Status:           model.BidStatusSubmitted,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, err
	}
	s.publishBid(ctx, principal, bid, model.ActivityBidSubmitted, "bid submitted")
	return bid, nil
}

type AcceptBidInput struct {
	Seeker       model.Party
	ScopeOfWork  string
	Deliverables []string
	StartAt      time.Time
	Schedule     []model.PaymentStage
}

// Accept moves a bid to accepted and instantiates the work order in proforma.
func (s *BidService) Accept(ctx context.Context, principal model.Principal, bidID uuid.UUID, input AcceptBidInput) (*model.Bid, *model.WorkOrder, error) {
	if !principal.IsSeeker() && !principal.IsAdmin() {
		return nil, nil, ErrPermissionDenied
	}
	draft := CreateDraftInput{
		Seeker:       input.Seeker,
		ScopeOfWork:  input.ScopeOfWork,
		Deliverables: input.Deliverables,
		StartAt:      input.StartAt,
		Schedule:     input.Schedule,
	}

	// Validate the draft against the current bid before the bid transition
	// commits. Accepting is terminal, so a draft that cannot instantiate a
	// work order must fail with the bid still open.
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := bidTransition(bid.Status, BidActionAccept); err != nil {
		return nil, nil, err
	}
	if err := s.orders.ValidateFromBid(bid, draft); err != nil {
		return nil, nil, err
	}

	bid, err = s.transition(ctx, principal, bidID, BidActionAccept, model.ActivityBidAccepted, "bid accepted")
	if err != nil {
		return nil, nil, err
	}
	wo, err := s.orders.CreateFromBid(ctx, principal, bid, draft)
	if err != nil {
		return nil, nil, err
	}
	return bid, wo, nil
}

func (s *BidService) Reject(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	if !principal.IsSeeker() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.transition(ctx, principal, bidID, BidActionReject, model.ActivityBidRejected, "bid rejected")
}

// Renegotiate moves a bid under review and opens a negotiation thread.
func (s *BidService) Renegotiate(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, *model.NegotiationThread, error) {
	if !principal.IsSeeker() && !principal.IsAdmin() {
		return nil, nil, ErrPermissionDenied
	}
	bid, err := s.transition(ctx, principal, bidID, BidActionRenegotiate, model.ActivityBidUnderReview, "bid moved under review")
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	thread := &model.NegotiationThread{
		ID:           uuid.New(),
		BidID:        bid.ID,
		Status:       model.NegotiationActive,
		LastActivity: now,
		Version:      1,
		CreatedAt:    now,
	}
	if err := s.negotiations.Create(ctx, thread); err != nil {
		return nil, nil, err
	}
	return bid, thread, nil
}

func (s *BidService) transition(ctx context.Context, principal model.Principal, bidID uuid.UUID, action BidAction, activityType model.ActivityType, description string) (*model.Bid, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	next, err := bidTransition(bid.Status, action)
	if err != nil {
		return nil, err
	}

	bid.Status = next
	bid.UpdatedAt = time.Now().UTC()
	if err := s.bids.Update(ctx, bid); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: bid %s was modified concurrently", ErrConflict, bidID)
		}
		return nil, err
	}
	bid.Version++
	s.publishBid(ctx, principal, bid, activityType, description)
	return bid, nil
}

// BulkOutcome reports one id's result of a bulk operation. A failed item
// never aborts or rolls back its siblings.
type BulkOutcome struct {
	BidID       uuid.UUID
	WorkOrderID *uuid.UUID
	Err         error
}

func (s *BidService) AcceptMany(ctx context.Context, principal model.Principal, bidIDs []uuid.UUID, input AcceptBidInput) []BulkOutcome {
	return s.fanOut(bidIDs, func(id uuid.UUID) BulkOutcome {
		_, wo, err := s.Accept(ctx, principal, id, input)
		outcome := BulkOutcome{BidID: id, Err: err}
		if wo != nil {
			outcome.WorkOrderID = &wo.ID
		}
		return outcome
	})
}

func (s *BidService) RejectMany(ctx context.Context, principal model.Principal, bidIDs []uuid.UUID) []BulkOutcome {
	return s.fanOut(bidIDs, func(id uuid.UUID) BulkOutcome {
		_, err := s.Reject(ctx, principal, id)
		return BulkOutcome{BidID: id, Err: err}
	})
}

func (s *BidService) RenegotiateMany(ctx context.Context, principal model.Principal, bidIDs []uuid.UUID) []BulkOutcome {
	return s.fanOut(bidIDs, func(id uuid.UUID) BulkOutcome {
		_, _, err := s.Renegotiate(ctx, principal, id)
		return BulkOutcome{BidID: id, Err: err}
	})
}

// fanOut runs one operation per id concurrently and keeps outcomes in input
// order.
func (s *BidService) fanOut(bidIDs []uuid.UUID, op func(uuid.UUID) BulkOutcome) []BulkOutcome {
	outcomes := make([]BulkOutcome, len(bidIDs))
	var wg sync.WaitGroup
	for i, id := range bidIDs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			outcomes[i] = op(id)
		}(i, id)
	}
	wg.Wait()
	return outcomes
}

// PostQuery appends a clarification query to a bid. Public queries are
// visible to all bidders on the request; private ones only to this bidder.
func (s *BidService) PostQuery(ctx context.Context, principal model.Principal, bidID uuid.UUID, message string, public bool) (*model.Bid, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot post a query on a %s bid", ErrInvalidTransition, bid.Status)
	}

	bid.Queries = append(bid.Queries, model.BidQuery{
		ID:         uuid.New(),
		AuthorID:   principal.UserID,
		AuthorType: principal.ActorType(),
		Message:    message,
		Public:     public,
		CreatedAt:  time.Now().UTC(),
	})
	bid.UpdatedAt = time.Now().UTC()
	if err := s.bids.Update(ctx, bid); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: bid %s was modified concurrently", ErrConflict, bidID)
		}
		return nil, err
	}
	bid.Version++
	s.publishBid(ctx, principal, bid, model.ActivityQueryPosted, "query posted")
	return bid, nil
}

func (s *BidService) PostReply(ctx context.Context, principal model.Principal, bidID, queryID uuid.UUID, message string, public bool) (*model.Bid, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, q := range bid.Queries {
		if q.ID == queryID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: query %s", ErrNotFound, queryID)
	}

	bid.Queries[idx].Replies = append(bid.Queries[idx].Replies, model.BidReply{
		ID:         uuid.New(),
		AuthorID:   principal.UserID,
		AuthorType: principal.ActorType(),
		Message:    message,
		Public:     public,
		CreatedAt:  time.Now().UTC(),
	})
	bid.UpdatedAt = time.Now().UTC()
	if err := s.bids.Update(ctx, bid); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: bid %s was modified concurrently", ErrConflict, bidID)
		}
		return nil, err
	}
	bid.Version++
	s.publishBid(ctx, principal, bid, model.ActivityReplyPosted, "reply posted")
	return bid, nil
}

func (s *BidService) Get(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	return s.scopeQueries(principal, bid), nil
}

func (s *BidService) ListByServiceRequest(ctx context.Context, principal model.Principal, serviceRequestID uuid.UUID) ([]model.Bid, error) {
	bids, err := s.bids.ListByServiceRequest(ctx, serviceRequestID)
	if err != nil {
		return nil, err
	}
	for i := range bids {
		bids[i] = *s.scopeQueries(principal, &bids[i])
	}
	return bids, nil
}

// scopeQueries strips private query threads from readers who are neither the
// bidder nor on the seeker side.
func (s *BidService) scopeQueries(principal model.Principal, bid *model.Bid) *model.Bid {
	if principal.IsAdmin() || principal.IsSeeker() || principal.UserID == bid.Bidder.UserID {
		return bid
	}
	visible := make([]model.BidQuery, 0, len(bid.Queries))
	for _, q := range bid.Queries {
		if q.Public {
			visible = append(visible, q)
		}
	}
	scoped := *bid
	scoped.Queries = visible
	return &scoped
}

func (s *BidService) loadBid(ctx context.Context, bidID uuid.UUID) (*model.Bid, error) {
	bid, err := s.bids.Get(ctx, bidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bid %s", ErrNotFound, bidID)
		}
		return nil, err
	}
	return bid, nil
}

// Bids have no embedded activity log of their own; accepted registry
// mutations surface through the notification stream instead.
func (s *BidService) publishBid(ctx context.Context, principal model.Principal, bid *model.Bid, activityType model.ActivityType, description string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, Event{
		BidID: bid.ID,
		Activity: model.ActivityRecord{
			ID:              uuid.New(),
			Type:            activityType,
			Description:     description,
			PerformedBy:     principal.UserID,
			PerformedByType: principal.ActorType(),
			Timestamp:       time.Now().UTC(),
			Metadata:        map[string]string{"status": string(bid.Status)},
		},
	})
}
