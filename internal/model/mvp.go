package model

import (
	"time"

	"github.com/google/uuid"
)

// MVPRecord is written at most once per room per calendar day and never
// updated afterwards.
type MVPRecord struct {
	RoomID         uuid.UUID
	Date           string
	UserTelegramID int64
	Score          int
	TasksCompleted int
	CreatedAt      time.Time
}
