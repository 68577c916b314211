// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/moonvale/werewolf-server/models"
)

// PostgreSQL 数据库实现 (database/sql + lib/pq)
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
        CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username VARCHAR(50) UNIQUE NOT NULL,
            password_hash VARCHAR(64) NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id INTEGER NOT NULL,
            room_name VARCHAR(50) NOT NULL,
            winner VARCHAR(20) NOT NULL,
            players JSONB NOT NULL,
            duration INTEGER DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
    `)

	return err
}

// CreateUser 注册新用户
func (p *PostgreSQL) CreateUser(username, passwordHash string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id int64
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`
	if err := p.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&id); err != nil {
		return 0, ErrUsernameTaken
	}
	return id, nil
}

// FindUser 校验用户名和密码哈希
func (p *PostgreSQL) FindUser(username, passwordHash string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id int64
	query := `SELECT id FROM users WHERE username = $1 AND password_hash = $2`
	err := p.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SaveGameRecord 保存对局记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records (room_id, room_name, winner, players, duration)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err = p.db.ExecContext(ctx, query,
		record.RoomID, record.RoomName, record.Winner, playersJSON, record.Duration)
	return err
}

// GetPlayerStats 统计玩家战绩
func (p *PostgreSQL) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := &models.PlayerStats{}
	query := `
        SELECT COUNT(*) AS total,
               COUNT(*) FILTER (WHERE pl->>'outcome' = 'win') AS wins
        FROM game_records, jsonb_array_elements(players) pl
        WHERE (pl->>'user_id')::bigint = $1
    `
	if err := p.db.QueryRowContext(ctx, query, userID).Scan(&stats.TotalGames, &stats.Wins); err != nil {
		return nil, err
	}
	stats.Losses = stats.TotalGames - stats.Wins
	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
