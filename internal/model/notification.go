package model

import "github.com/google/uuid"

// Notification is a closed union of the event kinds pushed to clients.
// Every kind carries its own typed payload; the websocket hub wraps the
// payload in a {type, payload} envelope.
type Notification interface {
	NotificationKind() string
}

type StreakIncremented struct {
	UserTelegramID int64     `json:"telegram_id"`
	RoomID         uuid.UUID `json:"room_id"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
}

func (StreakIncremented) NotificationKind() string { return "streak_incremented" }

type StreakReset struct {
	UserTelegramID int64     `json:"telegram_id"`
	RoomID         uuid.UUID `json:"room_id,omitempty"`
	LostStreak     int       `json:"lost_streak"`
}

func (StreakReset) NotificationKind() string { return "streak_reset" }

type TaskCompleted struct {
	RoomID         uuid.UUID `json:"room_id"`
	TaskID         uuid.UUID `json:"task_id"`
	UserTelegramID int64     `json:"telegram_id"`
	PointsAwarded  int       `json:"points_awarded"`
	Valid          bool      `json:"counts_toward_streak"`
}

func (TaskCompleted) NotificationKind() string { return "task_completed" }

type MVPDecided struct {
	RoomID         uuid.UUID `json:"room_id"`
	Date           string    `json:"date"`
	UserTelegramID int64     `json:"telegram_id"`
	Score          int       `json:"score"`
}

func (MVPDecided) NotificationKind() string { return "mvp_decided" }

type AppreciationReceived struct {
	RoomID         uuid.UUID        `json:"room_id"`
	FromTelegramID int64            `json:"from_telegram_id"`
	Kind           AppreciationKind `json:"kind"`
}

func (AppreciationReceived) NotificationKind() string { return "appreciation_received" }

type NudgeReceived struct {
	RoomID         uuid.UUID `json:"room_id"`
	FromTelegramID int64     `json:"from_telegram_id"`
	Message        string    `json:"message"`
}

func (NudgeReceived) NotificationKind() string { return "nudge_received" }
