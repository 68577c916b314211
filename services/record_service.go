// services/record_service.go
package services

import (
	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/models"
	"github.com/moonvale/werewolf-server/persistence"
)

// RecordService persists finished games. It satisfies game.Recorder.
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// RecordGame writes the record asynchronously. The caller is the game core
// holding a room lock; a slow database must not stall phase advancement.
func (s *RecordService) RecordGame(record *models.GameRecord) {
	go func() {
		if err := s.db.SaveGameRecord(record); err != nil {
			logger.Log.Errorf("Failed to save game record for room %d: %v", record.RoomID, err)
		}
	}()
}
