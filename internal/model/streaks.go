package model

import "github.com/google/uuid"

type StreakScope string

const (
	StreakScopeUserRoom StreakScope = "user_room"
	StreakScopeUser     StreakScope = "user"
	StreakScopeRoom     StreakScope = "room"
)

// StreakKey identifies one streak counter. Unused dimensions are zero
// values: the global user scope carries no room and the room scope no user.
type StreakKey struct {
	Scope          StreakScope
	RoomID         uuid.UUID
	UserTelegramID int64
}

func UserRoomStreakKey(roomID uuid.UUID, telegramID int64) StreakKey {
	return StreakKey{Scope: StreakScopeUserRoom, RoomID: roomID, UserTelegramID: telegramID}
}

func UserStreakKey(telegramID int64) StreakKey {
	return StreakKey{Scope: StreakScopeUser, UserTelegramID: telegramID}
}

func RoomStreakKey(roomID uuid.UUID) StreakKey {
	return StreakKey{Scope: StreakScopeRoom, RoomID: roomID}
}
