package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

type bidRow struct {
	ID               uuid.UUID
	ServiceRequestID uuid.UUID
	Bidder           []byte
	Breakdown        []byte
	DeliveryDate     time.Time
	Status           string
	Queries          []byte
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const bidColumns = `
	id, service_request_id, bidder, breakdown, delivery_date, status,
	queries, version, created_at, updated_at`

func (r *BidRepository) Create(ctx context.Context, bid *model.Bid) error {
	bidder, breakdown, queries, err := marshalBid(bid)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO bids (`+bidColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		bid.ID, bid.ServiceRequestID, bidder, breakdown, bid.DeliveryDate,
		bid.Status, queries, bid.Version, bid.CreatedAt, bid.UpdatedAt,
	).Error
}

func (r *BidRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	var row bidRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return unmarshalBid(row)
}

func (r *BidRepository) Update(ctx context.Context, bid *model.Bid) error {
	bidder, breakdown, queries, err := marshalBid(bid)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE bids
		SET bidder = ?,
			breakdown = ?,
			delivery_date = ?,
			status = ?,
			queries = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`, bidder, breakdown, bid.DeliveryDate, bid.Status, queries, bid.UpdatedAt, bid.ID, bid.Version)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists bool
		if err := r.db.WithContext(ctx).Raw(`
			SELECT EXISTS (SELECT 1 FROM bids WHERE id = ?)
		`, bid.ID).Scan(&exists).Error; err != nil {
			return err
		}
		if !exists {
			return gorm.ErrRecordNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *BidRepository) ListByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]model.Bid, error) {
	var rows []bidRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE service_request_id = ?
		ORDER BY created_at ASC
	`, serviceRequestID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	bids := make([]model.Bid, 0, len(rows))
	for _, row := range rows {
		bid, err := unmarshalBid(row)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *bid)
	}
	return bids, nil
}

func (r *BidRepository) ExistsForBidder(ctx context.Context, serviceRequestID, bidderUserID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1 FROM bids
			WHERE service_request_id = ?
				AND (bidder ->> 'user_id')::uuid = ?
				AND status <> 'rejected'
		)
	`, serviceRequestID, bidderUserID).Scan(&exists).Error
	return exists, err
}

func marshalBid(bid *model.Bid) (bidder, breakdown, queries []byte, err error) {
	if bidder, err = json.Marshal(bid.Bidder); err != nil {
		return nil, nil, nil, err
	}
	if breakdown, err = json.Marshal(bid.Breakdown); err != nil {
		return nil, nil, nil, err
	}
	if queries, err = json.Marshal(bid.Queries); err != nil {
		return nil, nil, nil, err
	}
	return bidder, breakdown, queries, nil
}

func unmarshalBid(row bidRow) (*model.Bid, error) {
	bid := &model.Bid{
		ID:               row.ID,
		ServiceRequestID: row.ServiceRequestID,
		DeliveryDate:     row.DeliveryDate,
		Status:           model.BidStatus(row.Status),
		Version:          row.Version,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Bidder, &bid.Bidder); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.Breakdown, &bid.Breakdown); err != nil {
		return nil, err
	}
	if len(row.Queries) > 0 {
		if err := json.Unmarshal(row.Queries, &bid.Queries); err != nil {
			return nil, err
		}
	}
	return bid, nil
}
