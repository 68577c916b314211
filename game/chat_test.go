package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonvale/werewolf-server/network"
)

func TestRelayChat_LobbyRoomWide(t *testing.T) {
	m, sender := newTestManager()
	r := fillRoom(m, 3)

	require.NoError(t, m.RelayChat(connID(0), r.ID, "hello"))

	for i := 0; i < 3; i++ {
		msg := sender.lastOfType(connID(i), network.MsgChatBroadcast)
		require.NotNil(t, msg, "seat %d should receive the chat", i)
		assert.Equal(t, playerName(0), msg["username"])
		assert.Equal(t, "hello", msg["message"])
		assert.Equal(t, "all", msg["chat_type"])
	}
}

func TestRelayChat_WolfChannelAtNight(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.RelayChat(connID(0), r.ID, "take the seer"))

	// Both wolves hear it, nobody else does.
	for i := 0; i < 2; i++ {
		msg := sender.lastOfType(connID(i), network.MsgChatBroadcast)
		require.NotNil(t, msg, "wolf %d should receive wolf chat", i)
		assert.Equal(t, "werewolf", msg["chat_type"])
	}
	for i := 2; i < 6; i++ {
		assert.Equal(t, 0, sender.countOfType(connID(i), network.MsgChatBroadcast), "seat %d", i)
	}
}

func TestRelayChat_NonWolfAtNightIsRoomWide(t *testing.T) {
	m, sender, r := nightFixture(t)

	require.NoError(t, m.RelayChat(connID(4), r.ID, "good night"))

	for i := 0; i < 6; i++ {
		msg := sender.lastOfType(connID(i), network.MsgChatBroadcast)
		require.NotNil(t, msg, "seat %d", i)
		assert.Equal(t, "all", msg["chat_type"])
	}
}

func TestRelayChat_DayChatReachesEveryone(t *testing.T) {
	m, sender, r := dayFixture(t)

	require.NoError(t, m.RelayChat(connID(0), r.ID, "I'm just a villager"))

	// Night is over, so even a werewolf speaks to the whole room.
	msg := sender.lastOfType(connID(4), network.MsgChatBroadcast)
	require.NotNil(t, msg)
	assert.Equal(t, "all", msg["chat_type"])
}

func TestRelayChat_Validation(t *testing.T) {
	m, _, r := dayFixture(t)

	assert.ErrorIs(t, m.RelayChat(connID(0), r.ID, ""), ErrEmptyMessage)
	assert.ErrorIs(t, m.RelayChat(connID(0), r.ID, strings.Repeat("a", MaxChatLength+1)), ErrMessageTooLong)
	assert.ErrorIs(t, m.RelayChat("conn-stranger", r.ID, "hi"), ErrNotInRoom)
	assert.ErrorIs(t, m.RelayChat(connID(0), 9, "hi"), ErrRoomNotFound)

	r.mu.Lock()
	r.Players[5].Alive = false
	r.mu.Unlock()
	assert.ErrorIs(t, m.RelayChat(connID(5), r.ID, "boo"), ErrDeadActor)
}

func TestRelayChat_DeadWolfExcludedFromWolfChannel(t *testing.T) {
	m, sender, r := nightFixture(t)

	r.mu.Lock()
	r.Players[1].Alive = false
	r.mu.Unlock()

	require.NoError(t, m.RelayChat(connID(0), r.ID, "alone now"))

	assert.Equal(t, 1, sender.countOfType(connID(0), network.MsgChatBroadcast))
	assert.Equal(t, 0, sender.countOfType(connID(1), network.MsgChatBroadcast), "dead wolves do not hear wolf chat")
}
