// models/gorm_models.go
package models

import (
	"time"
)

// GormRound 回合记录模型
type GormRound struct {
	ID           uint   `gorm:"primaryKey"`
	RoundID      string `gorm:"uniqueIndex;not null"`
	RoomID       string `gorm:"index;not null"`
	WinnerID     string `gorm:"index"`
	Aborted      bool   `gorm:"default:false"`
	StartedAt    time.Time
	EndedAt      time.Time
	Participants []GormRoundParticipant `gorm:"foreignKey:RoundID;references:RoundID"`
	CreatedAt    time.Time
}

func (GormRound) TableName() string { return "rounds" }

// GormRoundParticipant 回合参与者模型
type GormRoundParticipant struct {
	ID            uint   `gorm:"primaryKey"`
	RoundID       string `gorm:"index;not null"`
	ParticipantID string `gorm:"index;not null"`
	Name          string `gorm:"not null"`
	Outcome       string `gorm:"not null"`
}

func (GormRoundParticipant) TableName() string { return "round_participants" }

func NewGormRound(r RoundRecord) GormRound {
	g := GormRound{
		RoundID:   r.RoundID,
		RoomID:    r.RoomID,
		WinnerID:  r.WinnerID,
		Aborted:   r.Aborted,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
	for _, p := range r.Participants {
		g.Participants = append(g.Participants, GormRoundParticipant{
			RoundID:       r.RoundID,
			ParticipantID: p.ParticipantID,
			Name:          p.Name,
			Outcome:       string(p.Outcome),
		})
	}
	return g
}

func (g GormRound) Record() RoundRecord {
	r := RoundRecord{
		RoundID:   g.RoundID,
		RoomID:    g.RoomID,
		WinnerID:  g.WinnerID,
		Aborted:   g.Aborted,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
	for _, p := range g.Participants {
		r.Participants = append(r.Participants, RoundParticipant{
			ParticipantID: p.ParticipantID,
			Name:          p.Name,
			Outcome:       Outcome(p.Outcome),
		})
	}
	return r
}
