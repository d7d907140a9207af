package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/repository"
)

// Store interfaces are the persistence boundary of the lifecycle. Updates
// compare the aggregate version at write time and report
// repository.ErrVersionConflict on mismatch; services surface that as
// ErrConflict.

type BidStore interface {
	Create(ctx context.Context, bid *model.Bid) error
	Get(ctx context.Context, id uuid.UUID) (*model.Bid, error)
	Update(ctx context.Context, bid *model.Bid) error
	ListByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]model.Bid, error)
	ExistsForBidder(ctx context.Context, serviceRequestID, bidderUserID uuid.UUID) (bool, error)
}

type NegotiationStore interface {
	Create(ctx context.Context, thread *model.NegotiationThread) error
	Get(ctx context.Context, id uuid.UUID) (*model.NegotiationThread, error)
	Update(ctx context.Context, thread *model.NegotiationThread) error
}

type WorkOrderStore interface {
	Create(ctx context.Context, wo *model.WorkOrder) error
	Get(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	Update(ctx context.Context, wo *model.WorkOrder) error
	List(ctx context.Context, filter repository.WorkOrderFilter) ([]model.WorkOrder, int64, error)
}
