package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/repository"
)

// NegotiationService runs the structured back-and-forth attached to a bid
// under review. Threads close one way: active to completed or cancelled.
// Every accepted mutation publishes one notification event.
type NegotiationService struct {
	threads  NegotiationStore
	notifier Notifier
}

func NewNegotiationService(threads NegotiationStore, notifier Notifier) *NegotiationService {
	return &NegotiationService{threads: threads, notifier: notifier}
}

type PostInputRequest struct {
	Message         string
	ProposedChanges *model.ProposedTerms
	Attachments     []uuid.UUID
	ReasonCode      string
}

func (s *NegotiationService) PostInput(ctx context.Context, principal model.Principal, threadID uuid.UUID, input PostInputRequest) (*model.NegotiationThread, error) {
	if input.Message == "" && input.ProposedChanges == nil {
		return nil, fmt.Errorf("%w: a message or proposed changes are required", ErrInvalidInput)
	}
	thread, err := s.load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Status != model.NegotiationActive {
		return nil, fmt.Errorf("%w: negotiation thread is %s", ErrInvalidTransition, thread.Status)
	}

	now := time.Now().UTC()
	thread.Inputs = append(thread.Inputs, model.NegotiationInput{
		SenderType:      principal.ActorType(),
		Message:         input.Message,
		ProposedChanges: input.ProposedChanges,
		Attachments:     input.Attachments,
		ReasonCode:      input.ReasonCode,
		SentAt:          now,
	})
	thread.LastActivity = now
	saved, err := s.save(ctx, thread)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, principal, saved, model.ActivityNegotiationInput, "negotiation input posted")
	return saved, nil
}

// Complete closes the thread and returns the agreed terms for the caller to
// apply to the bid or work order.
func (s *NegotiationService) Complete(ctx context.Context, principal model.Principal, threadID uuid.UUID, finalTerms model.ProposedTerms) (*model.NegotiationThread, *model.ProposedTerms, error) {
	if finalTerms.ProfessionalFee <= 0 {
		return nil, nil, fmt.Errorf("%w: agreed professional fee must be positive", ErrInvalidInput)
	}
	thread, err := s.load(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	if err := negotiationTransition(thread.Status, model.NegotiationCompleted); err != nil {
		return nil, nil, err
	}

	thread.Status = model.NegotiationCompleted
	thread.AgreedTerms = &finalTerms
	thread.LastActivity = time.Now().UTC()
	saved, err := s.save(ctx, thread)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, principal, saved, model.ActivityNegotiationAgreed, "negotiation completed with agreed terms")
	return saved, saved.AgreedTerms, nil
}

// Cancel closes the thread without agreed terms.
func (s *NegotiationService) Cancel(ctx context.Context, principal model.Principal, threadID uuid.UUID) (*model.NegotiationThread, error) {
	thread, err := s.load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := negotiationTransition(thread.Status, model.NegotiationCancelled); err != nil {
		return nil, err
	}

	thread.Status = model.NegotiationCancelled
	thread.LastActivity = time.Now().UTC()
	saved, err := s.save(ctx, thread)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, principal, saved, model.ActivityNegotiationClosed, "negotiation cancelled")
	return saved, nil
}

func (s *NegotiationService) Get(ctx context.Context, threadID uuid.UUID) (*model.NegotiationThread, error) {
	return s.load(ctx, threadID)
}

func (s *NegotiationService) load(ctx context.Context, threadID uuid.UUID) (*model.NegotiationThread, error) {
	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: negotiation thread %s", ErrNotFound, threadID)
		}
		return nil, err
	}
	return thread, nil
}

func (s *NegotiationService) save(ctx context.Context, thread *model.NegotiationThread) (*model.NegotiationThread, error) {
	if err := s.threads.Update(ctx, thread); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: negotiation thread %s was modified concurrently", ErrConflict, thread.ID)
		}
		return nil, err
	}
	thread.Version++
	return thread, nil
}

// Threads carry no embedded activity log; accepted mutations surface through
// the notification stream, same as bid registry mutations.
func (s *NegotiationService) publish(ctx context.Context, principal model.Principal, thread *model.NegotiationThread, activityType model.ActivityType, description string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, Event{
		BidID:    thread.BidID,
		ThreadID: thread.ID,
		Activity: model.ActivityRecord{
			ID:              uuid.New(),
			Type:            activityType,
			Description:     description,
			PerformedBy:     principal.UserID,
			PerformedByType: principal.ActorType(),
			Timestamp:       time.Now().UTC(),
			Metadata:        map[string]string{"status": string(thread.Status)},
		},
	})
}
