// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormUser 用户模型
type GormUser struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID   int             `gorm:"index;not null"`
	RoomName string          `gorm:"not null"`
	Winner   string          `gorm:"not null"`
	Players  []PlayerOutcome `gorm:"type:jsonb;serializer:json;not null"`
	Duration int             `gorm:"default:0"` // 游戏时长(秒)
}
