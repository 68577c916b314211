package session

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/moonvale/werewolf-server/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	mu   sync.Mutex
	sent []uint16
}

func (m *MockConnection) Send(msgType uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msgType)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) sentTypes() []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint16(nil), m.sent...)
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	if !manager.Remove(sessionID) {
		t.Fatal("Remove should report the session was present")
	}
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}

	// The sweep and the connection's own cleanup can race over the same
	// session; only one of them may see the removal succeed.
	if manager.Remove(sessionID) {
		t.Fatal("Remove should report false for an already removed session")
	}
}

func TestSession_Login_Logout(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})

	if sess.IsLoggedIn() {
		t.Fatal("A new session should not be logged in")
	}

	sess.Login(42, "alice")
	if !sess.IsLoggedIn() {
		t.Fatal("Session should be logged in after Login")
	}

	userID, username := sess.Identity()
	if userID != 42 || username != "alice" {
		t.Errorf("Expected identity (42, alice), got (%d, %s)", userID, username)
	}

	sess.Logout()
	if sess.IsLoggedIn() {
		t.Fatal("Session should not be logged in after Logout")
	}
	userID, username = sess.Identity()
	if userID != 0 || username != "" {
		t.Errorf("Expected cleared identity, got (%d, %s)", userID, username)
	}
}

func TestManager_Sweep_PingsIdleSessions(t *testing.T) {
	manager := NewManager()
	conn := &MockConnection{}
	sess := NewSession("idle", conn)
	manager.Add(sess)

	// Fresh session: no ping, not expired.
	expired := manager.Sweep(time.Now())
	if len(expired) != 0 {
		t.Fatalf("Fresh session should not expire, got %d expired", len(expired))
	}
	if len(conn.sentTypes()) != 0 {
		t.Fatal("Fresh session should not be pinged")
	}

	// Past the ping threshold but before expiry: exactly one ping.
	expired = manager.Sweep(time.Now().Add(45 * time.Second))
	if len(expired) != 0 {
		t.Fatalf("Session should not expire at 45s, got %d expired", len(expired))
	}
	sent := conn.sentTypes()
	if len(sent) != 1 || sent[0] != network.MsgPing {
		t.Fatalf("Expected exactly one PING, got %v", sent)
	}

	// The same pass again should not re-ping immediately.
	manager.Sweep(time.Now().Add(46 * time.Second))
	if len(conn.sentTypes()) != 1 {
		t.Fatalf("Expected no duplicate PING, got %v", conn.sentTypes())
	}
}

func TestManager_Sweep_ExpiresSilentSessions(t *testing.T) {
	manager := NewManager()
	sess := NewSession("silent", &MockConnection{})
	manager.Add(sess)

	expired := manager.Sweep(time.Now().Add(2 * time.Minute))
	if len(expired) != 1 || expired[0] != sess {
		t.Fatalf("Expected the silent session to expire, got %v", expired)
	}
}

func TestSession_Touch_DefersExpiry(t *testing.T) {
	manager := NewManager()
	sess := NewSession("active", &MockConnection{})
	manager.Add(sess)

	base := time.Now()
	sess.Touch()

	expired := manager.Sweep(base.Add(80 * time.Second))
	if len(expired) != 0 {
		t.Fatal("A recently touched session should not expire")
	}
}
