// models/models.go
package models

import (
	"time"
)

// Outcome is how a participant's round ended.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeFell Outcome = "fell"
	OutcomeLeft Outcome = "left"
)

// RoundParticipant 回合参与者
type RoundParticipant struct {
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	Outcome       Outcome `json:"outcome"`
}

// RoundRecord is one finished or abandoned round.
type RoundRecord struct {
	RoundID      string             `json:"round_id"`
	RoomID       string             `json:"room_id"`
	WinnerID     string             `json:"winner_id,omitempty"`
	Aborted      bool               `json:"aborted"`
	StartedAt    time.Time          `json:"started_at"`
	EndedAt      time.Time          `json:"ended_at"`
	Participants []RoundParticipant `json:"participants"`
}

func (r RoundRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	ParticipantID string `json:"participant_id"`
	Rounds        int    `json:"rounds"`
	Wins          int    `json:"wins"`
	Falls         int    `json:"falls"`
}
