package game

import (
	"time"
)

// StartGame moves a waiting room into play: validates the requester is the
// host and the room can seat a legal role split, deals shuffled roles, and
// opens the role-card reading phase.
func (m *Manager) StartGame(connID string, roomID int) error {
	r := m.get(roomID)
	if r == nil {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ID != roomID {
		return ErrRoomNotFound
	}
	if r.HostConn != connID {
		return ErrNotHost
	}
	if len(r.Players) < MinPlayersToStart {
		return ErrNotEnoughPlayers
	}
	if r.Status == StatusPlaying {
		return ErrGameInProgress
	}

	dist, ok := ValidateRoleDistribution(len(r.Players))
	if !ok {
		return ErrBadDistribution
	}

	deck := buildDeck(dist, len(r.Players))
	m.shuffleRoles(deck)

	r.Status = StatusPlaying
	r.StartedAt = time.Now()

	// Deal every seat before revealing anything so werewolves see the
	// full team list, not just the seats dealt so far.
	for i := range r.Players {
		r.Players[i].Role = deck[i]
		r.Players[i].Alive = true
	}
	for i := range r.Players {
		m.sendRoleRevealLocked(r, i)
	}

	r.RoleCard = roleCardState{
		DoneCount: 0,
		Total:     len(r.Players),
		Deadline:  time.Now().Add(m.cfg.RoleCard),
	}
	return nil
}

// RoleCardDone records one "I'm done reading" action. Night begins the
// moment everyone has responded; the sweep covers the timeout path. Actions
// arriving after night already started are ignored, which also prevents
// double counting across the client/timer race.
func (m *Manager) RoleCardDone(connID string, roomID int) error {
	r := m.get(roomID)
	if r == nil {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ID != roomID {
		return ErrRoomNotFound
	}
	if r.Status != StatusPlaying || r.seatByConn(connID) == -1 {
		return ErrNotInRoom
	}
	if r.Night.Active || r.RoleCard.Deadline.IsZero() {
		return nil
	}

	r.RoleCard.DoneCount++
	if r.RoleCard.DoneCount >= r.RoleCard.Total {
		m.startNightLocked(r)
	}
	return nil
}
