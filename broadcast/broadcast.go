// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/moonvale/werewolf-server/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// 基于会话的广播器
// SessionSender resolves connection IDs through the session manager. It is
// the delivery backend the game core sends through.
type SessionSender struct {
	sessions *session.Manager
}

func NewSessionSender(sessions *session.Manager) *SessionSender {
	return &SessionSender{sessions: sessions}
}

// Send delivers one framed message to one connection. A missing session is
// an error the caller may ignore; the player simply is not connected.
func (b *SessionSender) Send(connID string, msgType uint16, data []byte) error {
	s, exists := b.sessions.Get(connID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.Send(msgType, data)
}
