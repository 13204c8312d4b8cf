package sqlstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mcoot/partygame/internal/model"
)

type partyRecord struct {
	ID        string                                 `gorm:"primaryKey;size:64"`
	Code      string                                 `gorm:"size:12;uniqueIndex;not null"`
	HostID    string                                 `gorm:"size:128;not null"`
	HostName  string                                 `gorm:"size:128;not null"`
	Game      string                                 `gorm:"size:32;not null"`
	Players   datatypes.JSONSlice[model.PartyPlayer] `gorm:"not null"`
	Status    string                                 `gorm:"size:16;index;not null"`
	CreatedAt time.Time                              `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time                              `gorm:"not null;autoUpdateTime:false"`
}

func (partyRecord) TableName() string { return "parties" }

func newPartyRecord(p *model.Party) *partyRecord {
	return &partyRecord{
		ID:        string(p.ID),
		Code:      string(p.Code),
		HostID:    string(p.HostID),
		HostName:  p.HostName,
		Game:      string(p.Game),
		Players:   datatypes.NewJSONSlice(p.Players),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r *partyRecord) toModel() *model.Party {
	players := make([]model.PartyPlayer, len(r.Players))
	copy(players, r.Players)
	return &model.Party{
		ID:        model.PartyID(r.ID),
		Code:      model.PartyCode(r.Code),
		HostID:    model.UserID(r.HostID),
		HostName:  r.HostName,
		Game:      model.GameType(r.Game),
		Players:   players,
		Status:    model.PartyStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type userRecord struct {
	ID        string    `gorm:"primaryKey;size:128"`
	Email     string    `gorm:"size:320;uniqueIndex;not null"`
	Name      string    `gorm:"size:128;not null"`
	Image     string    `gorm:"size:1024"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	LastLogin time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

func newUserRecord(u *model.User) *userRecord {
	return &userRecord{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

func (r *userRecord) toModel() *model.User {
	return &model.User{
		ID:        model.UserID(r.ID),
		Email:     r.Email,
		Name:      r.Name,
		Image:     r.Image,
		CreatedAt: r.CreatedAt,
		LastLogin: r.LastLogin,
	}
}

// gameHistoryRecord.Seq breaks timestamp ties in save order
type gameHistoryRecord struct {
	Seq       uint                        `gorm:"primaryKey;autoIncrement"`
	ID        string                      `gorm:"size:64;uniqueIndex;not null"`
	UserID    string                      `gorm:"size:128;index;not null"`
	Game      string                      `gorm:"size:32;not null"`
	Timestamp time.Time                   `gorm:"index;not null"`
	Players   datatypes.JSONSlice[string] `gorm:"not null"`
	Duration  int                         `gorm:"not null;default:0"`
}

func (gameHistoryRecord) TableName() string { return "game_history" }

func newGameHistoryRecord(h *model.GameHistory) *gameHistoryRecord {
	return &gameHistoryRecord{
		ID:        string(h.ID),
		UserID:    string(h.UserID),
		Game:      string(h.Game),
		Timestamp: h.Timestamp,
		Players:   datatypes.NewJSONSlice(h.Players),
		Duration:  h.Duration,
	}
}

func (r *gameHistoryRecord) toModel() *model.GameHistory {
	players := make([]string, len(r.Players))
	copy(players, r.Players)
	return &model.GameHistory{
		ID:        model.GameHistoryID(r.ID),
		UserID:    model.UserID(r.UserID),
		Game:      model.GameType(r.Game),
		Timestamp: r.Timestamp,
		Players:   players,
		Duration:  r.Duration,
	}
}
