// session/session.go
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/moonvale/werewolf-server/network"
)

// Session is one connected client. UserID and Username are zero until the
// client has logged in.
type Session struct {
	ID         string
	Conn       network.Connection
	UserID     int64
	Username   string
	LoggedIn   bool
	CreatedAt  time.Time
	LastActive time.Time
	lastPing   time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
		lastPing:   now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

// Login binds an authenticated account to this session.
func (s *Session) Login(userID int64, username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserID = userID
	s.Username = username
	s.LoggedIn = true
}

func (s *Session) Logout() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserID = 0
	s.Username = ""
	s.LoggedIn = false
}

func (s *Session) IsLoggedIn() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.LoggedIn
}

func (s *Session) Identity() (int64, string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.UserID, s.Username
}

// Touch records inbound activity, deferring the keepalive ping.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now()
	s.LastActive = now
	s.lastPing = now
}

func (s *Session) Send(msgType uint16, data []byte) error {
	return s.Conn.Send(msgType, data)
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

// Remove reports whether the session was still registered, so callers
// racing over teardown can tell who actually won.
func (m *Manager) Remove(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, exists := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return exists
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// A silent client is pinged after 30s and dropped after 90s; the desktop
// client answers pings automatically.
const (
	pingAfter   = 30 * time.Second
	expireAfter = 90 * time.Second
)

var pingPayload, _ = json.Marshal(map[string]string{"type": "ping"})

// Sweep pings idle sessions and returns those that have gone silent past the
// expiry window. The caller is responsible for tearing the returned sessions
// down (room bookkeeping, closing the connection).
func (m *Manager) Sweep(now time.Time) []*Session {
	m.mutex.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mutex.RUnlock()

	var expired []*Session
	for _, s := range candidates {
		s.mutex.Lock()
		idle := now.Sub(s.LastActive)
		sincePing := now.Sub(s.lastPing)
		if idle >= expireAfter {
			s.mutex.Unlock()
			expired = append(expired, s)
			continue
		}
		if idle >= pingAfter && sincePing >= pingAfter {
			s.lastPing = now
			s.mutex.Unlock()
			s.Send(network.MsgPing, pingPayload)
			continue
		}
		s.mutex.Unlock()
	}
	return expired
}
