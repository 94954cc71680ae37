// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/clueserver/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.KVEntry{},
		&models.ListItem{},
		&models.GormGameRecord{},
		&models.GormParticipant{},
	)
}

const liveClause = "expires_at IS NULL OR expires_at > ?"

func (p *GormPostgreSQL) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntry
	err := p.db.WithContext(ctx).
		Where("key = ?", key).
		Where(liveClause, time.Now()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return entry.Value, nil
}

func (p *GormPostgreSQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	entry := models.KVEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry(now, ttl),
		UpdatedAt: now,
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

func (p *GormPostgreSQL) ListAppend(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	exp := expiry(time.Now(), ttl)
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.ListItem{Key: key, Value: value, ExpiresAt: exp}).Error; err != nil {
			return err
		}
		return tx.Model(&models.ListItem{}).Where("key = ?", key).Update("expires_at", exp).Error
	})
}

func (p *GormPostgreSQL) ListRange(ctx context.Context, key string) ([][]byte, error) {
	var items []models.ListItem
	err := p.db.WithContext(ctx).
		Where("key = ?", key).
		Where(liveClause, time.Now()).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = item.Value
	}
	return out, nil
}

// SaveGameRecord 保存游戏记录
func (p *GormPostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	rec := models.GormGameRecord{
		GameID:     record.GameID,
		Winner:     record.Winner,
		WinnerName: record.WinnerName,
		Suspect:    record.Suspect,
		Weapon:     record.Weapon,
		Room:       record.Room,
		Turns:      record.Turns,
		FinishedAt: record.FinishedAt,
	}
	for _, part := range record.Participants {
		rec.Participants = append(rec.Participants, models.GormParticipant{
			PlayerID:   part.PlayerID,
			PlayerName: part.PlayerName,
			PlayerType: part.PlayerType,
			Character:  part.Character,
			Eliminated: part.Eliminated,
			Won:        part.Won,
		})
	}

	// 使用事务确保记录与参与者一致
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
}

// GetPlayerStats 玩家统计
func (p *GormPostgreSQL) GetPlayerStats(ctx context.Context, playerName string) (*models.PlayerStats, error) {
	var row struct {
		TotalGames int
		Wins       int
		Eliminated int
	}
	err := p.db.WithContext(ctx).Raw(`
        SELECT
            COUNT(*) AS total_games,
            COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN eliminated THEN 1 ELSE 0 END), 0) AS eliminated
        FROM game_participants
        WHERE player_name = ?`, playerName).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return &models.PlayerStats{
		PlayerName: playerName,
		TotalGames: row.TotalGames,
		Wins:       row.Wins,
		Losses:     row.TotalGames - row.Wins,
		Eliminated: row.Eliminated,
	}, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
