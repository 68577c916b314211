// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/moonvale/werewolf-server/models"
)

// Database 数据库接口
type Database interface {
	CreateUser(username, passwordHash string) (int64, error)
	FindUser(username, passwordHash string) (int64, error)
	SaveGameRecord(record *models.GameRecord) error
	GetPlayerStats(userID int64) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("wrong username or password")
)
