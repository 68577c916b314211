package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonvale/werewolf-server/network"
)

// nightFixture builds a playing six-seat room with the standard roles and an
// open night: seats 0,1 wolves, 2 seer, 3 guard, 4,5 villagers.
func nightFixture(t *testing.T) (*Manager, *recordingSender, *Room) {
	t.Helper()
	m, sender := newTestManager()
	r := fillRoom(m, 6)
	startWithRoles(m, r, rolesSixPlayers)
	beginNight(m, r)
	return m, sender, r
}

func TestSeerCheck_RevealsWerewolf(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, playerName(0)))

	result := sender.lastOfType(connID(2), network.MsgSeerResult)
	require.NotNil(t, result)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, playerName(0), result["target_username"])
	assert.Equal(t, true, result["is_werewolf"])

	// Nobody else sees the private result.
	assert.Equal(t, 0, sender.countOfType(connID(4), network.MsgSeerResult))

	// Everyone is told the guard window opened.
	for i := 0; i < 6; i++ {
		assert.Equal(t, 1, sender.countOfType(connID(i), network.MsgPhaseGuardStart), "seat %d", i)
	}
}

func TestSeerCheck_RevealsVillager(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, playerName(4)))

	result := sender.lastOfType(connID(2), network.MsgSeerResult)
	require.NotNil(t, result)
	assert.Equal(t, false, result["is_werewolf"])
}

func TestSeerCheck_EmptyTargetIsPass(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))

	assert.Equal(t, 0, sender.countOfType(connID(2), network.MsgSeerResult))
	assert.Equal(t, 1, sender.countOfType(connID(2), network.MsgPhaseGuardStart))
}

func TestSeerCheck_Validation(t *testing.T) {
	m, _, r := nightFixture(t)

	assert.ErrorIs(t, m.SeerCheck(connID(0), r.ID, playerName(4)), ErrWrongRole)
	assert.ErrorIs(t, m.SeerCheck("conn-stranger", r.ID, playerName(4)), ErrNotInRoom)
	assert.ErrorIs(t, m.SeerCheck(connID(2), r.ID, "nobody"), ErrTargetNotFound)

	r.mu.Lock()
	r.Players[4].Alive = false
	r.mu.Unlock()
	assert.ErrorIs(t, m.SeerCheck(connID(2), r.ID, playerName(4)), ErrTargetDead)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, playerName(0)))
	assert.ErrorIs(t, m.SeerCheck(connID(2), r.ID, playerName(1)), ErrAlreadyChosen)
}

func TestGuardProtect_RequiresSeerDone(t *testing.T) {
	m, _, r := nightFixture(t)

	assert.ErrorIs(t, m.GuardProtect(connID(3), r.ID, playerName(4)), ErrPhaseClosed)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, playerName(4)))
}

func TestGuardProtect_AdvancesToWolves(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, playerName(4)))

	ack := sender.lastOfType(connID(3), network.MsgGuardProtectRes)
	require.NotNil(t, ack)
	assert.Equal(t, "success", ack["status"])

	for i := 0; i < 6; i++ {
		assert.Equal(t, 1, sender.countOfType(connID(i), network.MsgPhaseWolfStart), "seat %d", i)
	}

	assert.ErrorIs(t, m.GuardProtect(connID(3), r.ID, playerName(5)), ErrAlreadyChosen)
}

func TestWolfVote_ResolvesWhenAllWolvesVoted(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))

	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))

	// One wolf voting is not enough to resolve.
	r.mu.Lock()
	assert.False(t, r.Night.WolfKillDone)
	r.mu.Unlock()

	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(4)))

	r.mu.Lock()
	assert.True(t, r.Night.WolfKillDone)
	assert.False(t, r.Night.Active)
	seat := r.seatByUsername(playerName(4))
	assert.False(t, r.Players[seat].Alive, "victim should be dead")
	r.mu.Unlock()

	day := sender.lastOfType(connID(5), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, "killed", day["result"])
	assert.Equal(t, playerName(4), day["targetId"])

	// Day vote opens immediately.
	r.mu.Lock()
	assert.True(t, r.Day.Active)
	assert.Equal(t, 1, r.Day.Round)
	r.mu.Unlock()
}

func TestFullNight_ProtectingTheWrongSeatDoesNotSaveVictim(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, playerName(0)))
	result := sender.lastOfType(connID(2), network.MsgSeerResult)
	require.NotNil(t, result)
	assert.Equal(t, true, result["is_werewolf"])

	// Guard covers a wolf while both wolves go after the seer.
	require.NoError(t, m.GuardProtect(connID(3), r.ID, playerName(0)))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(2)))
	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(2)))

	day := sender.lastOfType(connID(5), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, "killed", day["result"])
	assert.Equal(t, playerName(2), day["targetId"])

	r.mu.Lock()
	seat := r.seatByUsername(playerName(2))
	assert.False(t, r.Players[seat].Alive)
	r.mu.Unlock()
}

func TestWolfVote_LastWriteWins(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))

	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(5)))
	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(5)))

	day := sender.lastOfType(connID(0), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, playerName(5), day["targetId"], "the re-vote should replace the first choice")
}

func TestWolfVote_GuardProtectionSavesVictim(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, playerName(4)))

	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))
	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(4)))

	day := sender.lastOfType(connID(0), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, "no_kill", day["result"])

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, r.Players[4].Alive, "protected target survives")
}

func TestWolfVote_Validation(t *testing.T) {
	m, _, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))

	assert.ErrorIs(t, m.WolfVote(connID(4), r.ID, playerName(2)), ErrWrongRole)
	assert.ErrorIs(t, m.WolfVote(connID(0), r.ID, "nobody"), ErrTargetNotFound)

	r.mu.Lock()
	r.Players[0].Alive = false
	r.mu.Unlock()
	assert.ErrorIs(t, m.WolfVote(connID(0), r.ID, playerName(4)), ErrDeadActor)
}

func TestResolveWolfKill_RunsExactlyOnce(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))
	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(4)))

	// A timer firing right after the last vote must not double-resolve.
	r.mu.Lock()
	m.resolveWolfKillLocked(r)
	r.mu.Unlock()

	assert.Equal(t, 1, sender.countOfType(connID(5), network.MsgPhaseDay))
}

func TestWolfVote_TieResolvedRandomly(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))
	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(5)))

	day := sender.lastOfType(connID(0), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, "killed", day["result"])
	target := day["targetId"].(string)
	assert.Contains(t, []string{playerName(4), playerName(5)}, target)
}

func TestWolfTimeout_NoVotesMeansNoKill(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))

	// Rewind the wolf deadline so the next sweep sees it expired.
	r.mu.Lock()
	r.Night.WolfDeadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	m.Sweep(time.Now())

	day := sender.lastOfType(connID(0), network.MsgPhaseDay)
	require.NotNil(t, day)
	assert.Equal(t, "no_kill", day["result"])

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 6, r.aliveCount())
	assert.True(t, r.Day.Active)
}

func TestDisconnect_SeerLeavingClosesSeerWindow(t *testing.T) {
	m, sender, _ := nightFixture(t)

	m.Disconnect(connID(2))

	for i := 0; i < 6; i++ {
		if i == 2 {
			continue
		}
		assert.Equal(t, 1, sender.countOfType(connID(i), network.MsgPhaseGuardStart), "seat %d", i)
	}
}

func TestDisconnect_LastWolfVoteResolvesKill(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(4)))

	// The second wolf drops without voting; the remaining wolf's standing
	// vote now meets the quota.
	m.Disconnect(connID(1))

	day := sender.lastOfType(connID(5), network.MsgPhaseDay)
	require.NotNil(t, day, "kill should resolve without waiting for the wolf deadline")
	assert.Equal(t, "killed", day["result"])
	assert.Equal(t, playerName(4), day["targetId"])

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, r.Day.Active)
}

func TestNightKill_CanEndGame(t *testing.T) {
	m, sender, r := nightFixture(t)

	// Kill the villagers so only seer and guard stand between the wolves
	// and parity.
	r.mu.Lock()
	r.Players[4].Alive = false
	r.Players[5].Alive = false
	r.mu.Unlock()

	require.NoError(t, m.SeerCheck(connID(2), r.ID, ""))
	require.NoError(t, m.GuardProtect(connID(3), r.ID, ""))
	require.NoError(t, m.WolfVote(connID(0), r.ID, playerName(2)))
	require.NoError(t, m.WolfVote(connID(1), r.ID, playerName(2)))

	over := sender.lastOfType(connID(0), network.MsgGameOver)
	require.NotNil(t, over, "2 wolves vs 1 villager-side player should end the game")
	assert.Equal(t, "werewolves", over["winner"])
}
