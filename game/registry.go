package game

import (
	"time"

	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/network"
)

// RoomSummary is one row of the lobby listing.
type RoomSummary struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
	Status  int    `json:"status"`
}

// RoomView is returned from create/join for the requester's response.
type RoomView struct {
	RoomID   int
	RoomName string
	Players  []string
}

// SeatInfo is one seat in a room-info query.
type SeatInfo struct {
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
	IsHost   int    `json:"is_host"`
}

// RoomInfoView answers GET_ROOM_INFO.
type RoomInfoView struct {
	RoomID         int
	RoomName       string
	CurrentPlayers int
	MaxPlayers     int
	Status         int
	Seats          []SeatInfo
}

// LeaveResult tells the server handler which success message to send.
type LeaveResult struct {
	MarkedDead bool // true when the game was running and the seat was killed instead of freed
}

// get returns the room with the given id, or nil. The caller must re-check
// r.ID under the room lock; the slot may have been recycled in between.
func (m *Manager) get(roomID int) *Room {
	if roomID < 1 || roomID > MaxRooms {
		return nil
	}
	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		match := r.ID == roomID
		r.mu.Unlock()
		if match {
			return r
		}
	}
	return nil
}

// findByConn returns the room currently seating the connection, or nil.
func (m *Manager) findByConn(connID string) *Room {
	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		match := r.ID != 0 && r.seatByConn(connID) != -1
		r.mu.Unlock()
		if match {
			return r
		}
	}
	return nil
}

// InRoom reports whether the connection is seated anywhere.
func (m *Manager) InRoom(connID string) bool {
	return m.findByConn(connID) != nil
}

// CreateRoom allocates a free slot, seats the creator, and makes them host.
func (m *Manager) CreateRoom(connID string, userID int64, username, name string) (*RoomView, error) {
	if len(name) == 0 || len(name) >= 50 {
		return nil, ErrInvalidRoomName
	}
	if m.findByConn(connID) != nil {
		return nil, ErrAlreadyInRoom
	}

	m.createMu.Lock()
	defer m.createMu.Unlock()

	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		if r.ID != 0 {
			r.mu.Unlock()
			continue
		}

		r.ID = i + 1
		r.Name = name
		r.Status = StatusWaiting
		r.HostConn = connID
		r.Players = append(r.Players[:0], Player{
			ConnID:   connID,
			UserID:   userID,
			Username: username,
		})
		view := &RoomView{RoomID: r.ID, RoomName: r.Name}
		r.mu.Unlock()
		return view, nil
	}
	return nil, ErrNoFreeRooms
}

// JoinRoom seats the connection in an existing waiting room and notifies the
// other players.
func (m *Manager) JoinRoom(connID string, userID int64, username string, roomID int) (*RoomView, error) {
	if m.findByConn(connID) != nil {
		return nil, ErrAlreadyInRoom
	}

	r := m.get(roomID)
	if r == nil {
		return nil, ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ID != roomID {
		return nil, ErrRoomNotFound
	}
	if r.Status == StatusPlaying {
		return nil, ErrGameInProgress
	}
	if len(r.Players) >= MaxPlayersPerRoom {
		return nil, ErrRoomFull
	}

	r.Players = append(r.Players, Player{
		ConnID:   connID,
		UserID:   userID,
		Username: username,
	})

	view := &RoomView{RoomID: r.ID, RoomName: r.Name}
	for i := range r.Players {
		view.Players = append(view.Players, r.Players[i].Username)
	}

	m.broadcastLocked(r, network.MsgRoomStatusUpdate, roomUpdatePayload{
		Type:           "player_joined",
		Username:       username,
		CurrentPlayers: len(r.Players),
	})
	return view, nil
}

// LeaveRoom removes the connection from its room. During a running game the
// seat is kept and marked dead; while waiting the seat is freed, the roster
// compacted, and the host reassigned if needed.
func (m *Manager) LeaveRoom(connID string) (*LeaveResult, error) {
	r := m.findByConn(connID)
	if r == nil {
		return nil, ErrNotInRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatByConn(connID)
	if r.ID == 0 || seat == -1 {
		return nil, ErrNotInRoom
	}

	if r.Status == StatusPlaying {
		m.dropSeatLocked(r, seat)
		return &LeaveResult{MarkedDead: true}, nil
	}

	m.removeSeatLocked(r, seat, "player_left")
	return &LeaveResult{}, nil
}

// Disconnect handles a connection teardown. Identical to leaving, except no
// response goes back to the leaver.
func (m *Manager) Disconnect(connID string) {
	r := m.findByConn(connID)
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatByConn(connID)
	if r.ID == 0 || seat == -1 {
		return
	}

	if r.Status == StatusPlaying {
		m.dropSeatLocked(r, seat)
		return
	}
	m.removeSeatLocked(r, seat, "player_disconnected")
}

// dropSeatLocked marks a mid-game seat dead without freeing it. The seat's
// username stays on the roster so tallies and the final reveal line up.
func (m *Manager) dropSeatLocked(r *Room, seat int) {
	p := &r.Players[seat]
	p.Alive = false
	p.ConnID = ""
	p.DisconnectedAt = time.Now()

	m.broadcastLocked(r, network.MsgRoomStatusUpdate, roomUpdatePayload{
		Type:        "player_disconnected",
		Username:    p.Username,
		Message:     "Player disconnected and is considered dead",
		GameStarted: true,
	})

	m.reEvaluateLocked(r)
}

// reEvaluateLocked re-runs the idempotent phase checks after a seat dies
// outside the normal action flow. The departed player may have been the
// last holdout of the current window, or their death may settle the game
// outright; without this the room would idle until the next deadline.
func (m *Manager) reEvaluateLocked(r *Room) {
	if r.Status != StatusPlaying {
		return
	}
	if winner := r.winnerLocked(); winner != "" {
		m.endGameLocked(r, winner)
		return
	}

	if r.Night.Active {
		if !r.Night.SeerChoiceMade && !r.aliveRole(RoleSeer) {
			r.Night.SeerChoiceMade = true
			logger.Log.Infof("Room %d: seer gone, closing seer window", r.ID)
			m.advanceToGuardLocked(r)
		}
		if r.Night.SeerChoiceMade && !r.Night.GuardChoiceMade && !r.aliveRole(RoleGuard) {
			r.Night.GuardChoiceMade = true
			logger.Log.Infof("Room %d: guard gone, closing guard window", r.ID)
			m.advanceToWolvesLocked(r)
		}
		if r.Night.SeerChoiceMade && r.Night.GuardChoiceMade &&
			!r.Night.WolfKillDone && r.wolfQuotaMetLocked() {
			m.resolveWolfKillLocked(r)
		}
		if r.ID == 0 || !r.Day.Active {
			return
		}
	}

	if r.Day.Active && r.dayRespondedLocked() == r.aliveCount() {
		m.finalizeDayLocked(r)
	}
}

// removeSeatLocked frees a pre-game seat, compacts the roster, reassigns the
// host, and deletes the room when it empties out.
func (m *Manager) removeSeatLocked(r *Room, seat int, updateType string) {
	username := r.Players[seat].Username
	wasHost := r.HostConn == r.Players[seat].ConnID

	r.Players = append(r.Players[:seat], r.Players[seat+1:]...)

	if len(r.Players) == 0 {
		r.resetLocked()
		return
	}

	update := roomUpdatePayload{
		Type:           updateType,
		Username:       username,
		CurrentPlayers: len(r.Players),
	}
	if wasHost {
		r.HostConn = r.Players[0].ConnID
		update.NewHost = r.Players[0].Username
	}
	m.broadcastLocked(r, network.MsgRoomStatusUpdate, update)
}

// Rooms lists every active room for the lobby.
func (m *Manager) Rooms() []RoomSummary {
	out := make([]RoomSummary, 0, MaxRooms)
	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		if r.ID != 0 {
			out = append(out, RoomSummary{
				ID:      r.ID,
				Name:    r.Name,
				Current: len(r.Players),
				Max:     MaxPlayersPerRoom,
				Status:  int(r.Status),
			})
		}
		r.mu.Unlock()
	}
	return out
}

// ActiveRooms counts occupied slots, for the metrics gauges.
func (m *Manager) ActiveRooms() int {
	n := 0
	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		if r.ID != 0 {
			n++
		}
		r.mu.Unlock()
	}
	return n
}

// PlayingRooms counts rooms with a game in progress.
func (m *Manager) PlayingRooms() int {
	n := 0
	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		if r.ID != 0 && r.Status == StatusPlaying {
			n++
		}
		r.mu.Unlock()
	}
	return n
}

// RoomInfo answers a room detail query.
func (m *Manager) RoomInfo(roomID int) (*RoomInfoView, error) {
	r := m.get(roomID)
	if r == nil {
		return nil, ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ID != roomID {
		return nil, ErrRoomNotFound
	}

	view := &RoomInfoView{
		RoomID:         r.ID,
		RoomName:       r.Name,
		CurrentPlayers: len(r.Players),
		MaxPlayers:     MaxPlayersPerRoom,
		Status:         int(r.Status),
	}
	for i := range r.Players {
		view.Seats = append(view.Seats, SeatInfo{
			Username: r.Players[i].Username,
			UserID:   r.Players[i].UserID,
			IsHost:   boolToInt(r.Players[i].ConnID != "" && r.Players[i].ConnID == r.HostConn),
		})
	}
	return view, nil
}
