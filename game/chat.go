package game

import (
	"encoding/json"
	"errors"

	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/network"
)

const MaxChatLength = 500

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds 500 characters")
)

type chatPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	ChatType string `json:"chat_type"`
}

// RelayChat fans a chat line out to the sender's room. During an active
// night a werewolf's message goes only to the living wolves (chat_type
// "werewolf"); everything else is room-wide. Dead players may not speak
// while a game is running.
func (m *Manager) RelayChat(connID string, roomID int, message string) error {
	if message == "" {
		return ErrEmptyMessage
	}
	if len(message) > MaxChatLength {
		return ErrMessageTooLong
	}

	r := m.get(roomID)
	if r == nil {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ID != roomID {
		return ErrRoomNotFound
	}
	seat := r.seatByConn(connID)
	if seat == -1 {
		return ErrNotInRoom
	}
	p := &r.Players[seat]
	if r.Status == StatusPlaying && !p.Alive {
		return ErrDeadActor
	}

	wolfChannel := r.Status == StatusPlaying && r.Night.Active && p.Role == RoleWerewolf

	payload := chatPayload{
		Username: p.Username,
		Message:  message,
		ChatType: "all",
	}
	if wolfChannel {
		payload.ChatType = "werewolf"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal chat from %s: %v", p.Username, err)
		return err
	}

	for i := range r.Players {
		q := &r.Players[i]
		if q.ConnID == "" {
			continue
		}
		if wolfChannel && (q.Role != RoleWerewolf || !q.Alive) {
			continue
		}
		if err := m.sender.Send(q.ConnID, network.MsgChatBroadcast, data); err != nil {
			logger.Log.Debugf("Dropped chat to %s: %v", q.ConnID, err)
		}
	}
	return nil
}
