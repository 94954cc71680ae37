package persistence

import (
	"fmt"

	"github.com/wfunc/clueserver/config"
)

// Open returns the backend named by cfg.Driver.
func Open(cfg config.StorageConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
