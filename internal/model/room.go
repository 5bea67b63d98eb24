package model

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID        uuid.UUID
	Name      string
	Timezone  string
	CreatedBy int64
	CreatedAt time.Time
	Members   int
}

type RoomMember struct {
	RoomID         uuid.UUID
	UserTelegramID int64
	Username       string
	Points         int
	JoinedAt       time.Time
}
