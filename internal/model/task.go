package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID         uuid.UUID
	RoomID     uuid.UUID
	CreatedBy  int64
	Title      string
	Points     int
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

// TaskCompletion is immutable once written; "uncomplete" deletes the row
// rather than mutating it.
type TaskCompletion struct {
	ID             uuid.UUID
	TaskID         uuid.UUID
	RoomID         uuid.UUID
	UserTelegramID int64
	TaskCreatedAt  time.Time
	CompletedAt    time.Time
	CompletionDate string
	PointsAwarded  int
	Valid          bool
}

// MemberDayStats is one member's aggregated activity for a single room day,
// as consumed by the MVP scorer.
type MemberDayStats struct {
	UserTelegramID  int64
	TasksCompleted  int
	ValidTasks      int
	FirstCompletion *time.Time
}
