package model

import (
	"time"

	"github.com/google/uuid"
)

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

type MilestoneComment struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorType ActorType `json:"author_type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Milestone is a delivery checkpoint with its own status machine. Milestones
// are independent; no cross-milestone ordering is enforced.
type Milestone struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	DeliveryDate time.Time          `json:"delivery_date"`
	Status       MilestoneStatus    `json:"status"`
	Documents    []uuid.UUID        `json:"documents,omitempty"`
	Comments     []MilestoneComment `json:"comments,omitempty"`
}
