// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/clueserver/models"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动
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
        CREATE TABLE IF NOT EXISTS kv_entries (
            key VARCHAR(255) PRIMARY KEY,
            value BYTEA NOT NULL,
            expires_at TIMESTAMPTZ,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS list_items (
            id BIGSERIAL PRIMARY KEY,
            key VARCHAR(255) NOT NULL,
            value BYTEA NOT NULL,
            expires_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建游戏记录表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            game_id VARCHAR(255) UNIQUE NOT NULL,
            winner VARCHAR(255) NOT NULL,
            winner_name VARCHAR(255),
            suspect VARCHAR(100) NOT NULL,
            weapon VARCHAR(100) NOT NULL,
            room VARCHAR(100) NOT NULL,
            turns INT DEFAULT 0,
            finished_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_participants (
            id SERIAL PRIMARY KEY,
            game_record_id INT NOT NULL REFERENCES game_records(id),
            player_id VARCHAR(255) NOT NULL,
            player_name VARCHAR(255) NOT NULL,
            player_type VARCHAR(50) NOT NULL,
            character_name VARCHAR(100) NOT NULL,
            eliminated BOOLEAN DEFAULT FALSE,
            won BOOLEAN DEFAULT FALSE
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_kv_entries_expires_at ON kv_entries(expires_at);
        CREATE INDEX IF NOT EXISTS idx_list_items_key ON list_items(key);
        CREATE INDEX IF NOT EXISTS idx_game_records_finished_at ON game_records(finished_at);
        CREATE INDEX IF NOT EXISTS idx_game_participants_player_name ON game_participants(player_name);
    `)

	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (p *PostgreSQL) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	query := `SELECT value FROM kv_entries
        WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`
	err := p.db.QueryRowContext(ctx, query, key, time.Now()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return data, nil
}

func (p *PostgreSQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// 使用 UPSERT 操作 (PostgreSQL 9.5+)
	query := `
        INSERT INTO kv_entries (key, value, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (key)
        DO UPDATE SET value = $2, expires_at = $3, updated_at = CURRENT_TIMESTAMP
    `
	_, err := p.db.ExecContext(ctx, query, key, value, nullTime(expiry(time.Now(), ttl)))
	return err
}

func (p *PostgreSQL) ListAppend(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	exp := nullTime(expiry(time.Now(), ttl))

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO list_items (key, value, expires_at) VALUES ($1, $2, $3)`,
		key, value, exp); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE list_items SET expires_at = $2 WHERE key = $1`, key, exp); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgreSQL) ListRange(ctx context.Context, key string) ([][]byte, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT value FROM list_items
        WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)
        ORDER BY id`, key, time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := [][]byte{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
        INSERT INTO game_records (game_id, winner, winner_name, suspect, weapon, room, turns, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`,
		record.GameID, record.Winner, record.WinnerName,
		record.Suspect, record.Weapon, record.Room,
		record.Turns, record.FinishedAt).Scan(&id)
	if err != nil {
		return err
	}

	for _, part := range record.Participants {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO game_participants
                (game_record_id, player_id, player_name, player_type, character_name, eliminated, won)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, part.PlayerID, part.PlayerName, part.PlayerType,
			part.Character, part.Eliminated, part.Won)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPlayerStats 玩家统计
func (p *PostgreSQL) GetPlayerStats(ctx context.Context, playerName string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{PlayerName: playerName}
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN eliminated THEN 1 ELSE 0 END), 0)
        FROM game_participants
        WHERE player_name = $1`, playerName).
		Scan(&stats.TotalGames, &stats.Wins, &stats.Eliminated)
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	stats.Losses = stats.TotalGames - stats.Wins
	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
