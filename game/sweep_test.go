package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonvale/werewolf-server/network"
)

func TestSweep_EmptyRegistryIsNoop(t *testing.T) {
	m, _ := newTestManager()
	m.Sweep(time.Now())
}

func TestSweep_RoleCardTimeoutStartsNight(t *testing.T) {
	m, sender := newTestManager()
	r := fillRoom(m, 6)
	require.NoError(t, m.StartGame(connID(0), r.ID))

	// Only some players confirmed before the window ran out.
	require.NoError(t, m.RoleCardDone(connID(0), r.ID))
	require.NoError(t, m.RoleCardDone(connID(1), r.ID))

	r.mu.Lock()
	r.RoleCard.Deadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	m.Sweep(time.Now())

	r.mu.Lock()
	assert.True(t, r.Night.Active)
	r.mu.Unlock()
	assert.Equal(t, 1, sender.countOfType(connID(0), network.MsgPhaseNight))

	// The next tick must not start a second night.
	m.Sweep(time.Now())
	assert.Equal(t, 1, sender.countOfType(connID(0), network.MsgPhaseNight))
}

func TestSweep_SeerTimeoutOpensGuardWindow(t *testing.T) {
	m, sender, r := nightFixture(t)

	r.mu.Lock()
	r.Night.SeerDeadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	m.Sweep(time.Now())

	r.mu.Lock()
	assert.True(t, r.Night.SeerChoiceMade)
	r.mu.Unlock()
	assert.Equal(t, 1, sender.countOfType(connID(3), network.MsgPhaseGuardStart))

	// Late seer action after the timeout is rejected.
	assert.ErrorIs(t, m.SeerCheck(connID(2), r.ID, playerName(0)), ErrAlreadyChosen)
}

func TestSweep_GuardTimeoutOpensWolfWindow(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))

	r.mu.Lock()
	r.Night.GuardDeadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	m.Sweep(time.Now())

	r.mu.Lock()
	assert.True(t, r.Night.GuardChoiceMade)
	assert.Empty(t, r.Night.GuardProtected, "timeout means nobody is protected")
	r.mu.Unlock()
	assert.Equal(t, 1, sender.countOfType(connID(3), network.MsgPhaseWolfStart))
}

func TestSweep_WolfTimeoutResolvesPartialVotes(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))

	r.mu.Lock()
	r.Night.WolfDeadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	m.Sweep(time.Now())

	day := sender.lastOfType(connID(5), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, "killed", day["result"])
	assert.Equal(t, playerName(4), day["targetId"], "a single wolf's vote decides on timeout")
}

func TestSweep_DisconnectGraceBackstop(t *testing.T) {
	m, _ := newTestManager()
	r := fillRoom(m, 6)
	startWithRoles(m, r, rolesSixPlayers)

	// Simulate a seat that lost its connection but somehow kept Alive.
	r.mu.Lock()
	r.Players[4].ConnID = ""
	r.Players[4].DisconnectedAt = time.Now().Add(-m.cfg.DisconnectGrace - time.Second)
	r.mu.Unlock()

	m.Sweep(time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.False(t, r.Players[4].Alive, "grace expiry kills the seat")
}

func TestSweep_DisconnectGraceNotYetExpired(t *testing.T) {
	m, _ := newTestManager()
	r := fillRoom(m, 6)
	startWithRoles(m, r, rolesSixPlayers)

	r.mu.Lock()
	r.Players[4].ConnID = ""
	r.Players[4].DisconnectedAt = time.Now()
	r.mu.Unlock()

	m.Sweep(time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, r.Players[4].Alive, "inside the grace window the seat survives")
}

func TestSweep_ReleasesRoomWithNoConnections(t *testing.T) {
	m, _ := newTestManager()
	r := fillRoom(m, 6)
	startWithRoles(m, r, rolesSixPlayers)

	r.mu.Lock()
	for i := range r.Players {
		r.Players[i].ConnID = ""
		r.Players[i].DisconnectedAt = time.Now()
	}
	roomID := r.ID
	r.mu.Unlock()

	m.Sweep(time.Now())

	if _, err := m.RoomInfo(roomID); err == nil {
		t.Fatal("A room with no live connections should be released")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 0, r.ID)
}

func TestSweep_WaitingRoomWithConnectionsUntouched(t *testing.T) {
	m, _ := newTestManager()
	r := fillRoom(m, 3)

	m.Sweep(time.Now())

	info, err := m.RoomInfo(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, info.CurrentPlayers)
}
