package persistence

import (
	"sync"

	"github.com/wfunc/fallarena/models"
)

// Memory keeps rounds in process memory. It is used when no database is
// configured.
type Memory struct {
	rounds []models.RoundRecord
	mutex  sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveRound(record models.RoundRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rounds = append(m.rounds, record)
	return nil
}

// RecentRounds returns up to limit rounds, newest first.
func (m *Memory) RecentRounds(limit int) ([]models.RoundRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []models.RoundRecord
	for i := len(m.rounds) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rounds[i])
	}
	return out, nil
}

func (m *Memory) PlayerStats(participantID string) (models.PlayerStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := models.PlayerStats{ParticipantID: participantID}
	for _, r := range m.rounds {
		for _, p := range r.Participants {
			if p.ParticipantID != participantID {
				continue
			}
			stats.Rounds++
			switch p.Outcome {
			case models.OutcomeWon:
				stats.Wins++
			case models.OutcomeFell:
				stats.Falls++
			}
		}
	}
	if stats.Rounds == 0 {
		return stats, ErrRecordNotFound
	}
	return stats, nil
}

func (m *Memory) Close() error {
	return nil
}
