package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/engagements/internal/model"
)

func newBidFixture(t *testing.T) (*BidService, *fakeBidStore, *fakeNegotiationStore, *captureNotifier) {
	t.Helper()
	bids := newFakeBidStore()
	negotiations := newFakeNegotiationStore()
	notifier := &captureNotifier{}
	orders := NewWorkOrderService(newFakeWorkOrderStore(), notifier, model.DefaultFeeRates())
	svc := NewBidService(bids, negotiations, orders, notifier, model.DefaultFeeRates())
	return svc, bids, negotiations, notifier
}

func submitTestBid(t *testing.T, svc *BidService, requestID uuid.UUID) *model.Bid {
	t.Helper()
	bidder := model.BidderProfile{
		UserID:      uuid.New(),
		OrgID:       providerOrg,
		Name:        "Sharma & Co",
		Email:       "desk@sharma.test",
		Credentials: "FRN 004512S",
	}
	bid, err := svc.Submit(context.Background(), providerPrincipal(), SubmitBidInput{
		ServiceRequestID: requestID,
		Bidder:           bidder,
		ProfessionalFee:  150000,
		Reimbursements:   5000,
		RegulatoryPayouts: 2000,
		OPE:              1000,
		DeliveryDate:     time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return bid
}

func acceptInput() AcceptBidInput {
	seeker, _ := testParties()
	return AcceptBidInput{
		Seeker:      seeker,
		ScopeOfWork: "Statutory audit for FY 2025-26",
		StartAt:     time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Schedule:    testSchedule(),
	}
}

func TestSubmitBid(t *testing.T) {
	svc, _, _, notifier := newBidFixture(t)
	requestID := uuid.New()

	bid := submitTestBid(t, svc, requestID)
	require.Equal(t, model.BidStatusSubmitted, bid.Status)
	require.Equal(t, int64(202700), bid.Breakdown.TotalAmount)
	require.Empty(t, bid.Breakdown.PaymentTerms)
	require.Equal(t, 1, notifier.count())
}

func TestSubmitBidRejectsDuplicates(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	requestID := uuid.New()
	bid := submitTestBid(t, svc, requestID)

	_, err := svc.Submit(context.Background(), providerPrincipal(), SubmitBidInput{
		ServiceRequestID: requestID,
		Bidder:           bid.Bidder,
		ProfessionalFee:  120000,
		DeliveryDate:     time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	// A different request is a different registry scope.
	_, err = svc.Submit(context.Background(), providerPrincipal(), SubmitBidInput{
		ServiceRequestID: uuid.New(),
		Bidder:           bid.Bidder,
		ProfessionalFee:  120000,
		DeliveryDate:     time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestSubmitBidDeniedForSeekers(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)

	_, err := svc.Submit(context.Background(), seekerPrincipal(), SubmitBidInput{
		ServiceRequestID: uuid.New(),
		Bidder:           model.BidderProfile{UserID: uuid.New()},
		ProfessionalFee:  100000,
		DeliveryDate:     time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAcceptBidCreatesWorkOrder(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())

	accepted, wo, err := svc.Accept(context.Background(), seekerPrincipal(), bid.ID, acceptInput())
	require.NoError(t, err)
	require.Equal(t, model.BidStatusAccepted, accepted.Status)
	require.NotNil(t, wo)
	require.Equal(t, model.WorkOrderSeekerInitiated, wo.Type)
	require.Equal(t, model.WorkOrderProforma, wo.Status)
	require.NotNil(t, wo.BidID)
	require.Equal(t, bid.ID, *wo.BidID)

	// Financials and the provider side carry over from the bid.
	require.Equal(t, bid.Breakdown.ProfessionalFee, wo.Breakdown.ProfessionalFee)
	require.Equal(t, bid.Breakdown.TotalAmount, wo.Breakdown.TotalAmount)
	require.Equal(t, bid.Bidder.UserID, wo.Provider.UserID)
	require.Equal(t, bid.Bidder.OrgID, wo.Provider.OrgID)
	require.Equal(t, bid.DeliveryDate, wo.Timeline.ExpectedCompletionAt)
	require.Len(t, wo.Breakdown.PaymentTerms, 2)
}

func TestAcceptBidRejectsBadDraftWithoutStrandingBid(t *testing.T) {
	svc, store, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())

	bad := acceptInput()
	bad.Schedule = []model.PaymentStage{
		{Label: "Advance", Percent: 50, Upfront: true, DueDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)},
		{Label: "On delivery", Percent: 40, DueDate: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)},
	}
	_, wo, err := svc.Accept(context.Background(), seekerPrincipal(), bid.ID, bad)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Nil(t, wo)

	// The bid is still open, so the seeker can accept again with a fixed draft.
	stored, err := store.Get(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Equal(t, model.BidStatusSubmitted, stored.Status)
	require.Equal(t, bid.Version, stored.Version)

	accepted, wo, err := svc.Accept(context.Background(), seekerPrincipal(), bid.ID, acceptInput())
	require.NoError(t, err)
	require.Equal(t, model.BidStatusAccepted, accepted.Status)
	require.NotNil(t, wo)

	bad.Schedule = nil
	missing := submitTestBid(t, svc, uuid.New())
	_, wo, err = svc.Accept(context.Background(), seekerPrincipal(), missing.ID, bad)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Nil(t, wo)
	stored, err = store.Get(context.Background(), missing.ID)
	require.NoError(t, err)
	require.Equal(t, model.BidStatusSubmitted, stored.Status)
}

func TestAcceptBidDeniedForProviders(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())

	_, _, err := svc.Accept(context.Background(), providerPrincipal(), bid.ID, acceptInput())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTerminalBidsRejectFurtherTransitions(t *testing.T) {
	svc, store, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())

	_, _, err := svc.Accept(context.Background(), seekerPrincipal(), bid.ID, acceptInput())
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), seekerPrincipal(), bid.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = svc.Renegotiate(context.Background(), seekerPrincipal(), bid.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := store.Get(context.Background(), bid.ID)
	require.NoError(t, err)
	require.Equal(t, model.BidStatusAccepted, stored.Status)
}

func TestRenegotiateOpensThread(t *testing.T) {
	svc, _, negotiations, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())

	reviewed, thread, err := svc.Renegotiate(context.Background(), seekerPrincipal(), bid.ID)
	require.NoError(t, err)
	require.Equal(t, model.BidStatusUnderReview, reviewed.Status)
	require.Equal(t, bid.ID, thread.BidID)
	require.Equal(t, model.NegotiationActive, thread.Status)

	stored, err := negotiations.Get(context.Background(), thread.ID)
	require.NoError(t, err)
	require.Equal(t, model.NegotiationActive, stored.Status)

	// Under review the bid can still be accepted.
	accepted, _, err := svc.Accept(context.Background(), seekerPrincipal(), bid.ID, acceptInput())
	require.NoError(t, err)
	require.Equal(t, model.BidStatusAccepted, accepted.Status)
}

func TestBulkRejectKeepsGoingPastFailures(t *testing.T) {
	svc, store, _, _ := newBidFixture(t)

	first := submitTestBid(t, svc, uuid.New())
	second := submitTestBid(t, svc, uuid.New())
	third := submitTestBid(t, svc, uuid.New())

	// Make the middle one terminal so its rejection fails.
	_, _, err := svc.Accept(context.Background(), seekerPrincipal(), second.ID, acceptInput())
	require.NoError(t, err)

	outcomes := svc.RejectMany(context.Background(), seekerPrincipal(), []uuid.UUID{first.ID, second.ID, third.ID})
	require.Len(t, outcomes, 3)
	require.Equal(t, first.ID, outcomes[0].BidID)
	require.Equal(t, second.ID, outcomes[1].BidID)
	require.Equal(t, third.ID, outcomes[2].BidID)
	require.NoError(t, outcomes[0].Err)
	require.ErrorIs(t, outcomes[1].Err, ErrInvalidTransition)
	require.NoError(t, outcomes[2].Err)

	for _, tc := range []struct {
		id   uuid.UUID
		want model.BidStatus
	}{
		{first.ID, model.BidStatusRejected},
		{second.ID, model.BidStatusAccepted},
		{third.ID, model.BidStatusRejected},
	} {
		stored, err := store.Get(context.Background(), tc.id)
		require.NoError(t, err)
		require.Equal(t, tc.want, stored.Status)
	}
}

func TestBulkAcceptReportsWorkOrders(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)

	first := submitTestBid(t, svc, uuid.New())
	second := submitTestBid(t, svc, uuid.New())

	outcomes := svc.AcceptMany(context.Background(), seekerPrincipal(), []uuid.UUID{first.ID, second.ID, uuid.New()}, acceptInput())
	require.Len(t, outcomes, 3)
	require.NoError(t, outcomes[0].Err)
	require.NotNil(t, outcomes[0].WorkOrderID)
	require.NoError(t, outcomes[1].Err)
	require.NotNil(t, outcomes[1].WorkOrderID)
	require.ErrorIs(t, outcomes[2].Err, ErrNotFound)
	require.Nil(t, outcomes[2].WorkOrderID)
}

func TestBulkRenegotiateOpensThreadPerSuccess(t *testing.T) {
	svc, _, negotiations, _ := newBidFixture(t)

	first := submitTestBid(t, svc, uuid.New())
	second := submitTestBid(t, svc, uuid.New())
	_, err := svc.Reject(context.Background(), seekerPrincipal(), second.ID)
	require.NoError(t, err)

	outcomes := svc.RenegotiateMany(context.Background(), seekerPrincipal(), []uuid.UUID{first.ID, second.ID})
	require.Len(t, outcomes, 2)
	require.NoError(t, outcomes[0].Err)
	require.ErrorIs(t, outcomes[1].Err, ErrInvalidTransition)

	negotiations.mu.Lock()
	defer negotiations.mu.Unlock()
	require.Len(t, negotiations.threads, 1)
	for _, thread := range negotiations.threads {
		require.Equal(t, first.ID, thread.BidID)
	}
}

func TestPostQueryOnTerminalBid(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())

	_, err := svc.Reject(context.Background(), seekerPrincipal(), bid.ID)
	require.NoError(t, err)

	_, err = svc.PostQuery(context.Background(), seekerPrincipal(), bid.ID, "can you start earlier?", true)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQueryRepliesThread(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())
	seeker := seekerPrincipal()

	withQuery, err := svc.PostQuery(context.Background(), seeker, bid.ID, "is GST included in the fee?", true)
	require.NoError(t, err)
	require.Len(t, withQuery.Queries, 1)
	queryID := withQuery.Queries[0].ID

	bidderPrincipal := model.Principal{UserID: bid.Bidder.UserID, OrgID: bid.Bidder.OrgID, Role: model.RoleProvider}
	withReply, err := svc.PostReply(context.Background(), bidderPrincipal, bid.ID, queryID, "GST is on top of the quoted fee", true)
	require.NoError(t, err)
	require.Len(t, withReply.Queries[0].Replies, 1)
	require.Equal(t, model.ActorProvider, withReply.Queries[0].Replies[0].AuthorType)

	_, err = svc.PostReply(context.Background(), seeker, bid.ID, uuid.New(), "lost", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPrivateQueriesAreScoped(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	bid := submitTestBid(t, svc, uuid.New())
	seeker := seekerPrincipal()

	_, err := svc.PostQuery(context.Background(), seeker, bid.ID, "public clarification", true)
	require.NoError(t, err)
	_, err = svc.PostQuery(context.Background(), seeker, bid.ID, "private fee discussion", false)
	require.NoError(t, err)

	seen, err := svc.Get(context.Background(), seeker, bid.ID)
	require.NoError(t, err)
	require.Len(t, seen.Queries, 2)

	bidderPrincipal := model.Principal{UserID: bid.Bidder.UserID, OrgID: bid.Bidder.OrgID, Role: model.RoleProvider}
	seen, err = svc.Get(context.Background(), bidderPrincipal, bid.ID)
	require.NoError(t, err)
	require.Len(t, seen.Queries, 2)

	rival := model.Principal{UserID: uuid.New(), OrgID: otherOrg, Role: model.RoleProvider}
	seen, err = svc.Get(context.Background(), rival, bid.ID)
	require.NoError(t, err)
	require.Len(t, seen.Queries, 1)
	require.True(t, seen.Queries[0].Public)
}

func TestListByServiceRequest(t *testing.T) {
	svc, _, _, _ := newBidFixture(t)
	requestID := uuid.New()

	submitTestBid(t, svc, requestID)
	submitTestBid(t, svc, requestID)
	submitTestBid(t, svc, uuid.New())

	bids, err := svc.ListByServiceRequest(context.Background(), seekerPrincipal(), requestID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
}
