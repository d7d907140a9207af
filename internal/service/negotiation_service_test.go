package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/engagements/internal/model"
)

func newNegotiationFixture(t *testing.T) (*NegotiationService, *captureNotifier, *model.NegotiationThread) {
	t.Helper()
	store := newFakeNegotiationStore()
	notifier := &captureNotifier{}
	svc := NewNegotiationService(store, notifier)

	thread := &model.NegotiationThread{
		ID:           uuid.New(),
		BidID:        uuid.New(),
		Status:       model.NegotiationActive,
		LastActivity: time.Now().UTC(),
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), thread))
	return svc, notifier, thread
}

func TestPostInputRequiresContent(t *testing.T) {
	svc, _, thread := newNegotiationFixture(t)

	_, err := svc.PostInput(context.Background(), seekerPrincipal(), thread.ID, PostInputRequest{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPostInputAppends(t *testing.T) {
	svc, _, thread := newNegotiationFixture(t)

	updated, err := svc.PostInput(context.Background(), seekerPrincipal(), thread.ID, PostInputRequest{
		Message: "can we bring the fee down by ten percent?",
		ProposedChanges: &model.ProposedTerms{
			ProfessionalFee: 135000,
			DeliveryDate:    time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		},
		ReasonCode: "budget_cap",
	})
	require.NoError(t, err)
	require.Len(t, updated.Inputs, 1)
	require.Equal(t, model.ActorSeeker, updated.Inputs[0].SenderType)
	require.Equal(t, int64(135000), updated.Inputs[0].ProposedChanges.ProfessionalFee)
	require.False(t, updated.LastActivity.Before(thread.LastActivity))

	updated, err = svc.PostInput(context.Background(), providerPrincipal(), thread.ID, PostInputRequest{
		Message: "we can do 140000 with the same date",
	})
	require.NoError(t, err)
	require.Len(t, updated.Inputs, 2)
	require.Equal(t, model.ActorProvider, updated.Inputs[1].SenderType)
}

func TestNegotiationMutationsPublishOneEvent(t *testing.T) {
	svc, notifier, thread := newNegotiationFixture(t)
	seeker := seekerPrincipal()

	_, err := svc.PostInput(context.Background(), seeker, thread.ID, PostInputRequest{Message: "can we revisit the fee?"})
	require.NoError(t, err)
	require.Equal(t, 1, notifier.count())
	event := notifier.last()
	require.Equal(t, model.ActivityNegotiationInput, event.Activity.Type)
	require.Equal(t, thread.ID, event.ThreadID)
	require.Equal(t, thread.BidID, event.BidID)
	require.Equal(t, seeker.UserID, event.Activity.PerformedBy)

	_, _, err = svc.Complete(context.Background(), seeker, thread.ID, model.ProposedTerms{ProfessionalFee: 140000})
	require.NoError(t, err)
	require.Equal(t, 2, notifier.count())
	require.Equal(t, model.ActivityNegotiationAgreed, notifier.last().Activity.Type)
	require.Equal(t, string(model.NegotiationCompleted), notifier.last().Activity.Metadata["status"])

	// Rejected calls publish nothing.
	_, err = svc.Cancel(context.Background(), seeker, thread.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 2, notifier.count())
}

func TestCancelledThreadPublishesEvent(t *testing.T) {
	svc, notifier, thread := newNegotiationFixture(t)

	_, err := svc.Cancel(context.Background(), providerPrincipal(), thread.ID)
	require.NoError(t, err)
	require.Equal(t, 1, notifier.count())
	require.Equal(t, model.ActivityNegotiationClosed, notifier.last().Activity.Type)
}

func TestCompleteReturnsAgreedTerms(t *testing.T) {
	svc, _, thread := newNegotiationFixture(t)

	terms := model.ProposedTerms{
		ProfessionalFee: 140000,
		Reimbursements:  5000,
		DeliveryDate:    time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
	}
	completed, agreed, err := svc.Complete(context.Background(), seekerPrincipal(), thread.ID, terms)
	require.NoError(t, err)
	require.Equal(t, model.NegotiationCompleted, completed.Status)
	require.NotNil(t, agreed)
	require.Equal(t, terms, *agreed)
}

func TestCompleteRequiresPositiveFee(t *testing.T) {
	svc, _, thread := newNegotiationFixture(t)

	_, _, err := svc.Complete(context.Background(), seekerPrincipal(), thread.ID, model.ProposedTerms{ProfessionalFee: 0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestClosedThreadsStayClosed(t *testing.T) {
	svc, _, thread := newNegotiationFixture(t)

	_, _, err := svc.Complete(context.Background(), seekerPrincipal(), thread.ID, model.ProposedTerms{ProfessionalFee: 100000})
	require.NoError(t, err)

	_, err = svc.PostInput(context.Background(), providerPrincipal(), thread.ID, PostInputRequest{Message: "one more thing"})
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Cancel(context.Background(), seekerPrincipal(), thread.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = svc.Complete(context.Background(), seekerPrincipal(), thread.ID, model.ProposedTerms{ProfessionalFee: 100000})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelThread(t *testing.T) {
	svc, _, thread := newNegotiationFixture(t)

	cancelled, err := svc.Cancel(context.Background(), seekerPrincipal(), thread.ID)
	require.NoError(t, err)
	require.Equal(t, model.NegotiationCancelled, cancelled.Status)
	require.Nil(t, cancelled.AgreedTerms)
}

func TestGetUnknownThread(t *testing.T) {
	svc, _, _ := newNegotiationFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
