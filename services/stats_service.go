package services

import (
	"errors"
	"fmt"

	"github.com/wfunc/fallarena/models"
	"github.com/wfunc/fallarena/persistence"
	"github.com/wfunc/fallarena/session"
)

const maxRecentRounds = 100

var ErrInvalidRound = errors.New("round record has no id")

type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

// RecordRound stores a finished round.
func (s *StatsService) RecordRound(record models.RoundRecord) error {
	if record.RoundID == "" {
		return ErrInvalidRound
	}
	if err := s.db.SaveRound(record); err != nil {
		return fmt.Errorf("save round %s: %w", record.RoundID, err)
	}
	return nil
}

// PlayerStats looks a player up by name.
func (s *StatsService) PlayerStats(name string) (models.PlayerStats, error) {
	return s.db.PlayerStats(session.ParticipantID(name))
}

// RecentRounds returns the newest rounds first. limit is clamped to [1, 100].
func (s *StatsService) RecentRounds(limit int) ([]models.RoundRecord, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > maxRecentRounds {
		limit = maxRecentRounds
	}
	return s.db.RecentRounds(limit)
}
