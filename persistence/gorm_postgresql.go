// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/fallarena/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormRound{}, &models.GormRoundParticipant{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveRound stores the round and its participant rows in one transaction.
func (p *GormPostgreSQL) SaveRound(record models.RoundRecord) error {
	round := models.NewGormRound(record)
	return p.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&round).Error
	})
}

func (p *GormPostgreSQL) RecentRounds(limit int) ([]models.RoundRecord, error) {
	var rounds []models.GormRound
	err := p.db.Preload("Participants").
		Order("ended_at DESC").
		Limit(limit).
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.RoundRecord, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, r.Record())
	}
	return out, nil
}

func (p *GormPostgreSQL) PlayerStats(participantID string) (models.PlayerStats, error) {
	stats := models.PlayerStats{ParticipantID: participantID}

	var row struct {
		Rounds int
		Wins   int
		Falls  int
	}
	err := p.db.Model(&models.GormRoundParticipant{}).
		Select(`COUNT(*) AS rounds,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS falls`,
			string(models.OutcomeWon), string(models.OutcomeFell)).
		Where("participant_id = ?", participantID).
		Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, ErrRecordNotFound
		}
		return stats, err
	}
	if row.Rounds == 0 {
		return stats, ErrRecordNotFound
	}

	stats.Rounds, stats.Wins, stats.Falls = row.Rounds, row.Wins, row.Falls
	return stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
