package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/engagements/internal/model"
)

// WorkOrderFilter narrows List results; zero fields are ignored.
type WorkOrderFilter struct {
	Statuses  []model.WorkOrderStatus
	Reference string
	From      time.Time
	To        time.Time
	Page      int
	Limit     int
}

// WorkOrderRepository persists work orders as denormalized aggregate rows.
// Embedded collections live in JSONB columns so one read returns the full
// engagement state without joins.
type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

type workOrderRow struct {
	ID                  uuid.UUID
	Reference           string
	Type                string
	Status              string
	BidID               *uuid.UUID
	Seeker              []byte
	Provider            []byte
	ScopeOfWork         string
	Deliverables        []byte
	Timeline            []byte
	Breakdown           []byte
	Milestones          []byte
	InformationRequests []byte
	TeamMembers         []byte
	Disputes            []byte
	Feedback            []byte
	Activities          []byte
	Signatures          []byte
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

const workOrderColumns = `
	id, reference, type, status, bid_id, seeker, provider, scope_of_work,
	deliverables, timeline, breakdown, milestones, information_requests,
	team_members, disputes, feedback, activities, signatures, version,
	created_at, updated_at`

func (r *WorkOrderRepository) Create(ctx context.Context, wo *model.WorkOrder) error {
	cols, err := marshalWorkOrder(wo)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO work_orders (`+workOrderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		wo.ID, wo.Reference, wo.Type, wo.Status, wo.BidID,
		cols.seeker, cols.provider, wo.ScopeOfWork,
		cols.deliverables, cols.timeline, cols.breakdown, cols.milestones,
		cols.informationRequests, cols.teamMembers, cols.disputes,
		cols.feedback, cols.activities, cols.signatures,
		wo.Version, wo.CreatedAt, wo.UpdatedAt,
	).Error
}

func (r *WorkOrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var row workOrderRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return unmarshalWorkOrder(row)
}

// Update writes the aggregate under an optimistic version check. Zero rows
// affected means either the row vanished or someone else won the write.
func (r *WorkOrderRepository) Update(ctx context.Context, wo *model.WorkOrder) error {
	cols, err := marshalWorkOrder(wo)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE work_orders
		SET status = ?,
			scope_of_work = ?,
			deliverables = ?,
			timeline = ?,
			breakdown = ?,
			milestones = ?,
			information_requests = ?,
			team_members = ?,
			disputes = ?,
			feedback = ?,
			activities = ?,
			signatures = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`,
		wo.Status, wo.ScopeOfWork,
		cols.deliverables, cols.timeline, cols.breakdown, cols.milestones,
		cols.informationRequests, cols.teamMembers, cols.disputes,
		cols.feedback, cols.activities, cols.signatures,
		wo.UpdatedAt, wo.ID, wo.Version,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists bool
		if err := r.db.WithContext(ctx).Raw(`
			SELECT EXISTS (SELECT 1 FROM work_orders WHERE id = ?)
		`, wo.ID).Scan(&exists).Error; err != nil {
			return err
		}
		if !exists {
			return gorm.ErrRecordNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *WorkOrderRepository) List(ctx context.Context, filter WorkOrderFilter) ([]model.WorkOrder, int64, error) {
	where, args := buildWorkOrderFilter(filter)

	var total int64
	if err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM work_orders`+where, args...,
	).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query := `SELECT ` + workOrderColumns + ` FROM work_orders` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, offset)

	var rows []workOrderRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]model.WorkOrder, 0, len(rows))
	for _, row := range rows {
		wo, err := unmarshalWorkOrder(row)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *wo)
	}
	return orders, total, nil
}

func buildWorkOrderFilter(filter WorkOrderFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Reference != "" {
		clauses = append(clauses, "reference = ?")
		args = append(args, filter.Reference)
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, filter.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type workOrderColumnsJSON struct {
	seeker              []byte
	provider            []byte
	deliverables        []byte
	timeline            []byte
	breakdown           []byte
	milestones          []byte
	informationRequests []byte
	teamMembers         []byte
	disputes            []byte
	feedback            []byte
	activities          []byte
	signatures          []byte
}

func marshalWorkOrder(wo *model.WorkOrder) (*workOrderColumnsJSON, error) {
	cols := &workOrderColumnsJSON{}
	for _, field := range []struct {
		dst *[]byte
		src interface{}
	}{
		{&cols.seeker, wo.Seeker},
		{&cols.provider, wo.Provider},
		{&cols.deliverables, wo.Deliverables},
		{&cols.timeline, wo.Timeline},
		{&cols.breakdown, wo.Breakdown},
		{&cols.milestones, wo.Milestones},
		{&cols.informationRequests, wo.InformationRequests},
		{&cols.teamMembers, wo.TeamMembers},
		{&cols.disputes, wo.Disputes},
		{&cols.feedback, wo.Feedback},
		{&cols.activities, wo.Activities},
		{&cols.signatures, wo.Signatures},
	} {
		data, err := json.Marshal(field.src)
		if err != nil {
			return nil, err
		}
		*field.dst = data
	}
	return cols, nil
}

func unmarshalWorkOrder(row workOrderRow) (*model.WorkOrder, error) {
	wo := &model.WorkOrder{
		ID:          row.ID,
		Reference:   row.Reference,
		Type:        model.WorkOrderType(row.Type),
		Status:      model.WorkOrderStatus(row.Status),
		BidID:       row.BidID,
		ScopeOfWork: row.ScopeOfWork,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, field := range []struct {
		src []byte
		dst interface{}
	}{
		{row.Seeker, &wo.Seeker},
		{row.Provider, &wo.Provider},
		{row.Deliverables, &wo.Deliverables},
		{row.Timeline, &wo.Timeline},
		{row.Breakdown, &wo.Breakdown},
		{row.Milestones, &wo.Milestones},
		{row.InformationRequests, &wo.InformationRequests},
		{row.TeamMembers, &wo.TeamMembers},
		{row.Disputes, &wo.Disputes},
		{row.Feedback, &wo.Feedback},
		{row.Activities, &wo.Activities},
		{row.Signatures, &wo.Signatures},
	} {
		if len(field.src) == 0 {
			continue
		}
		if err := json.Unmarshal(field.src, field.dst); err != nil {
			return nil, err
		}
	}
	return wo, nil
}
