package persistence

import (
	"testing"

	"github.com/wfunc/fallarena/config"
	"github.com/wfunc/fallarena/models"
)

func round(id string, outcomes map[string]models.Outcome) models.RoundRecord {
	r := models.RoundRecord{RoundID: id, RoomID: "arena"}
	for pid, o := range outcomes {
		r.Participants = append(r.Participants, models.RoundParticipant{ParticipantID: pid, Name: pid, Outcome: o})
		if o == models.OutcomeWon {
			r.WinnerID = pid
		}
	}
	return r
}

func TestMemory_PlayerStats(t *testing.T) {
	db := NewMemory()
	db.SaveRound(round("1", map[string]models.Outcome{"a": models.OutcomeFell, "b": models.OutcomeWon}))
	db.SaveRound(round("2", map[string]models.Outcome{"a": models.OutcomeWon, "b": models.OutcomeFell}))
	db.SaveRound(round("3", map[string]models.Outcome{"a": models.OutcomeLeft}))

	stats, err := db.PlayerStats("a")
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.Rounds != 3 || stats.Wins != 1 || stats.Falls != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	if _, err := db.PlayerStats("nobody"); err != ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemory_RecentRounds(t *testing.T) {
	db := NewMemory()
	for _, id := range []string{"1", "2", "3"} {
		db.SaveRound(models.RoundRecord{RoundID: id})
	}

	rounds, _ := db.RecentRounds(2)
	if len(rounds) != 2 || rounds[0].RoundID != "3" || rounds[1].RoundID != "2" {
		t.Errorf("Expected rounds 3,2 got %+v", rounds)
	}
}

func TestOpen_Drivers(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "none"})
	if err != nil {
		t.Fatalf("Open none failed: %v", err)
	}
	if _, ok := db.(*Memory); !ok {
		t.Errorf("Expected a memory store, got %T", db)
	}

	if _, err := Open(config.DatabaseConfig{Driver: "mongo"}); err == nil {
		t.Error("Expected an error for an unknown driver")
	}
}
