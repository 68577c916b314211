// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moonvale/werewolf-server/models"
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
	if err := db.AutoMigrate(&models.GormUser{}, &models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// CreateUser 注册新用户
func (p *GormPostgreSQL) CreateUser(username, passwordHash string) (int64, error) {
	user := models.GormUser{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := p.db.Create(&user).Error; err != nil {
		// uniqueIndex 冲突
		return 0, ErrUsernameTaken
	}
	return int64(user.ID), nil
}

// FindUser 校验用户名和密码哈希
func (p *GormPostgreSQL) FindUser(username, passwordHash string) (int64, error) {
	var user models.GormUser
	err := p.db.Where("username = ? AND password_hash = ?", username, passwordHash).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	return int64(user.ID), nil
}

// SaveGameRecord 保存对局记录
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := models.GormGameRecord{
		RoomID:   record.RoomID,
		RoomName: record.RoomName,
		Winner:   record.Winner,
		Players:  record.Players,
		Duration: record.Duration,
	}
	return p.db.Create(&row).Error
}

// GetPlayerStats 统计玩家战绩
func (p *GormPostgreSQL) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{}

	row := p.db.Raw(`
        SELECT COUNT(*) AS total,
               COUNT(*) FILTER (WHERE pl->>'outcome' = 'win') AS wins
        FROM gorm_game_records, jsonb_array_elements(players) pl
        WHERE (pl->>'user_id')::bigint = ?
    `, userID).Row()

	if err := row.Scan(&stats.TotalGames, &stats.Wins); err != nil {
		return nil, err
	}
	stats.Losses = stats.TotalGames - stats.Wins
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
