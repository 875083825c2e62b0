// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/wfunc/fallarena/models"
)

// Database 数据库接口
type Database interface {
	SaveRound(record models.RoundRecord) error
	RecentRounds(limit int) ([]models.RoundRecord, error)
	PlayerStats(participantID string) (models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
)
