package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
)

type NegotiationRepository struct {
	db *gorm.DB
}

func NewNegotiationRepository(db *gorm.DB) *NegotiationRepository {
	return &NegotiationRepository{db: db}
}

type negotiationRow struct {
	ID           uuid.UUID
	BidID        uuid.UUID
	Status       string
	Inputs       []byte
	AgreedTerms  []byte
	LastActivity time.Time
	Version      int64
	CreatedAt    time.Time
}

func (r *NegotiationRepository) Create(ctx context.Context, thread *model.NegotiationThread) error {
	inputs, agreed, err := marshalThread(thread)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO negotiation_threads (id, bid_id, status, inputs, agreed_terms, last_activity, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, thread.ID, thread.BidID, thread.Status, inputs, agreed, thread.LastActivity, thread.Version, thread.CreatedAt).Error
}

func (r *NegotiationRepository) Get(ctx context.Context, id uuid.UUID) (*model.NegotiationThread, error) {
	var row negotiationRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, bid_id, status, inputs, agreed_terms, last_activity, version, created_at
		FROM negotiation_threads
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	thread := &model.NegotiationThread{
		ID:           row.ID,
		BidID:        row.BidID,
		Status:       model.NegotiationStatus(row.Status),
		LastActivity: row.LastActivity,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
	}
	if len(row.Inputs) > 0 {
		if err := json.Unmarshal(row.Inputs, &thread.Inputs); err != nil {
			return nil, err
		}
	}
	if len(row.AgreedTerms) > 0 && string(row.AgreedTerms) != "null" {
		thread.AgreedTerms = &model.ProposedTerms{}
		if err := json.Unmarshal(row.AgreedTerms, thread.AgreedTerms); err != nil {
			return nil, err
		}
	}
	return thread, nil
}

func (r *NegotiationRepository) Update(ctx context.Context, thread *model.NegotiationThread) error {
	inputs, agreed, err := marshalThread(thread)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE negotiation_threads
		SET status = ?,
			inputs = ?,
			agreed_terms = ?,
			last_activity = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`, thread.Status, inputs, agreed, thread.LastActivity, thread.ID, thread.Version)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists bool
		if err := r.db.WithContext(ctx).Raw(`
			SELECT EXISTS (SELECT 1 FROM negotiation_threads WHERE id = ?)
		`, thread.ID).Scan(&exists).Error; err != nil {
			return err
		}
		if !exists {
			return gorm.ErrRecordNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func marshalThread(thread *model.NegotiationThread) (inputs, agreed []byte, err error) {
	if inputs, err = json.Marshal(thread.Inputs); err != nil {
		return nil, nil, err
	}
	if agreed, err = json.Marshal(thread.AgreedTerms); err != nil {
		return nil, nil, err
	}
	return inputs, agreed, nil
}
