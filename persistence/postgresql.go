// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"
	"github.com/wfunc/fallarena/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS rounds (
            id SERIAL PRIMARY KEY,
            round_id VARCHAR(64) UNIQUE NOT NULL,
            room_id VARCHAR(255) NOT NULL,
            winner_id VARCHAR(64),
            aborted BOOLEAN NOT NULL DEFAULT FALSE,
            started_at TIMESTAMP NOT NULL,
            ended_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS round_participants (
            id SERIAL PRIMARY KEY,
            round_id VARCHAR(64) NOT NULL REFERENCES rounds(round_id),
            participant_id VARCHAR(64) NOT NULL,
            name VARCHAR(255) NOT NULL,
            outcome VARCHAR(16) NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);
        CREATE INDEX IF NOT EXISTS idx_round_participants_round_id ON round_participants(round_id);
        CREATE INDEX IF NOT EXISTS idx_round_participants_participant_id ON round_participants(participant_id);
    `)

	return err
}

func (p *PostgreSQL) SaveRound(record models.RoundRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO rounds (round_id, room_id, winner_id, aborted, started_at, ended_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
    `, record.RoundID, record.RoomID, record.WinnerID, record.Aborted, record.StartedAt, record.EndedAt)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	for _, participant := range record.Participants {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO round_participants (round_id, participant_id, name, outcome)
            VALUES ($1, $2, $3, $4)
        `, record.RoundID, participant.ParticipantID, participant.Name, string(participant.Outcome))
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	return tx.Commit()
}

func (p *PostgreSQL) RecentRounds(limit int) ([]models.RoundRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT round_id, room_id, COALESCE(winner_id, ''), aborted, started_at, ended_at
        FROM rounds ORDER BY ended_at DESC LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RoundRecord
	for rows.Next() {
		var r models.RoundRecord
		if err := rows.Scan(&r.RoundID, &r.RoomID, &r.WinnerID, &r.Aborted, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		participants, err := p.participants(ctx, out[i].RoundID)
		if err != nil {
			return nil, err
		}
		out[i].Participants = participants
	}
	return out, nil
}

func (p *PostgreSQL) participants(ctx context.Context, roundID string) ([]models.RoundParticipant, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT participant_id, name, outcome FROM round_participants WHERE round_id = $1 ORDER BY id
    `, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RoundParticipant
	for rows.Next() {
		var rp models.RoundParticipant
		var outcome string
		if err := rows.Scan(&rp.ParticipantID, &rp.Name, &outcome); err != nil {
			return nil, err
		}
		rp.Outcome = models.Outcome(outcome)
		out = append(out, rp)
	}
	return out, rows.Err()
}

func (p *PostgreSQL) PlayerStats(participantID string) (models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := models.PlayerStats{ParticipantID: participantID}
	err := p.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
            COALESCE(SUM(CASE WHEN outcome = $2 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN outcome = $3 THEN 1 ELSE 0 END), 0)
        FROM round_participants WHERE participant_id = $1
    `, participantID, string(models.OutcomeWon), string(models.OutcomeFell)).
		Scan(&stats.Rounds, &stats.Wins, &stats.Falls)
	if err != nil {
		if err == sql.ErrNoRows {
			return stats, ErrRecordNotFound
		}
		return stats, err
	}
	if stats.Rounds == 0 {
		return stats, ErrRecordNotFound
	}
	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
