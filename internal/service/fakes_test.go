package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/repository"
)

type fakeWorkOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.WorkOrder
}

func newFakeWorkOrderStore() *fakeWorkOrderStore {
	return &fakeWorkOrderStore{orders: make(map[uuid.UUID]*model.WorkOrder)}
}

func (f *fakeWorkOrderStore) Create(_ context.Context, wo *model.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[wo.ID] = wo.Clone()
	return nil
}

func (f *fakeWorkOrderStore) Get(_ context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return stored.Clone(), nil
}

func (f *fakeWorkOrderStore) Update(_ context.Context, wo *model.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[wo.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != wo.Version {
		return repository.ErrVersionConflict
	}
	next := wo.Clone()
	next.Version = wo.Version + 1
	f.orders[wo.ID] = next
	return nil
}

func (f *fakeWorkOrderStore) List(_ context.Context, filter repository.WorkOrderFilter) ([]model.WorkOrder, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.WorkOrder
	for _, wo := range f.orders {
		if len(filter.Statuses) > 0 {
			found := false
			for _, status := range filter.Statuses {
				if wo.Status == status {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.Reference != "" && wo.Reference != filter.Reference {
			continue
		}
		matched = append(matched, *wo.Clone())
	}
	total := int64(len(matched))
	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type fakeBidStore struct {
	mu   sync.Mutex
	bids map[uuid.UUID]model.Bid
}

func newFakeBidStore() *fakeBidStore {
	return &fakeBidStore{bids: make(map[uuid.UUID]model.Bid)}
}

func (f *fakeBidStore) Create(_ context.Context, bid *model.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bids[bid.ID] = *bid
	return nil
}

func (f *fakeBidStore) Get(_ context.Context, id uuid.UUID) (*model.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.bids[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := stored
	return &out, nil
}

func (f *fakeBidStore) Update(_ context.Context, bid *model.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.bids[bid.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != bid.Version {
		return repository.ErrVersionConflict
	}
	next := *bid
	next.Version = bid.Version + 1
	f.bids[bid.ID] = next
	return nil
}

func (f *fakeBidStore) ListByServiceRequest(_ context.Context, serviceRequestID uuid.UUID) ([]model.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var bids []model.Bid
	for _, bid := range f.bids {
		if bid.ServiceRequestID == serviceRequestID {
			bids = append(bids, bid)
		}
	}
	return bids, nil
}

func (f *fakeBidStore) ExistsForBidder(_ context.Context, serviceRequestID, bidderUserID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, bid := range f.bids {
		if bid.ServiceRequestID == serviceRequestID && bid.Bidder.UserID == bidderUserID && bid.Status != model.BidStatusRejected {
			return true, nil
		}
	}
	return false, nil
}

type fakeNegotiationStore struct {
	mu      sync.Mutex
	threads map[uuid.UUID]model.NegotiationThread
}

func newFakeNegotiationStore() *fakeNegotiationStore {
	return &fakeNegotiationStore{threads: make(map[uuid.UUID]model.NegotiationThread)}
}

func (f *fakeNegotiationStore) Create(_ context.Context, thread *model.NegotiationThread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[thread.ID] = *thread
	return nil
}

func (f *fakeNegotiationStore) Get(_ context.Context, id uuid.UUID) (*model.NegotiationThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.threads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := stored
	return &out, nil
}

func (f *fakeNegotiationStore) Update(_ context.Context, thread *model.NegotiationThread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.threads[thread.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != thread.Version {
		return repository.ErrVersionConflict
	}
	next := *thread
	next.Version = thread.Version + 1
	f.threads[thread.ID] = next
	return nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureNotifier) Publish(_ context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *captureNotifier) last() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[len(c.events)-1]
}
