package model

import (
	"time"

	"github.com/google/uuid"
)

type AppreciationKind string

const (
	AppreciationKudos AppreciationKind = "kudos"
	AppreciationFire  AppreciationKind = "fire"
	AppreciationHeart AppreciationKind = "heart"
	AppreciationClap  AppreciationKind = "clap"
)

func (k AppreciationKind) Valid() bool {
	switch k {
	case AppreciationKudos, AppreciationFire, AppreciationHeart, AppreciationClap:
		return true
	}
	return false
}

type Appreciation struct {
	ID             uuid.UUID
	RoomID         uuid.UUID
	FromTelegramID int64
	ToTelegramID   int64
	Kind           AppreciationKind
	Day            string
	CreatedAt      time.Time
}

type Nudge struct {
	ID             uuid.UUID
	RoomID         uuid.UUID
	FromTelegramID int64
	ToTelegramID   int64
	Message        string
	CreatedAt      time.Time
}

// QuotaStatus reports a member's remaining allowance for one kind of social
// action inside the current UTC day window.
type QuotaStatus struct {
	Limit     int
	Used      int
	Remaining int
}

// AppreciationSummary lists the kinds a member has received in a room,
// most recent day first.
type AppreciationSummary struct {
	UserTelegramID int64
	Kinds          []string
}
