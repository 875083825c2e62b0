package persistence

import (
	"fmt"

	"github.com/wfunc/fallarena/config"
)

// Open returns the round store selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "none":
		return NewMemory(), nil
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "pq":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
