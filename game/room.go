package game

import (
	"sync"
	"time"
)

// RoomStatus 表示房间的业务状态
type RoomStatus int

const (
	StatusWaiting RoomStatus = 0
	StatusPlaying RoomStatus = 1
	StatusFinished RoomStatus = 2
)

// Player is one seat in a room. The seat survives mid-game disconnects;
// ConnID goes empty and Alive goes false, but the username and role stay so
// vote tallies and the final reveal remain consistent.
type Player struct {
	ConnID         string
	UserID         int64
	Username       string
	Role           Role
	Alive          bool
	DisconnectedAt time.Time
}

// nightState is reset every time night begins. The three deadlines are
// strictly sequential windows; a zero deadline means "not set".
type nightState struct {
	Active          bool
	SeerDeadline    time.Time
	GuardDeadline   time.Time
	WolfDeadline    time.Time
	SeerChoiceMade  bool
	SeerTarget      string
	GuardChoiceMade bool
	GuardProtected  string
	WolfVotes       [MaxPlayersPerRoom]string // seat index -> target username, "" = no vote
	WolfKillDone    bool
}

// dayState tracks the voting rounds. Responded distinguishes an explicit
// skip from a player who has not acted yet.
type dayState struct {
	Active     bool
	Round      int // 0 inactive, 1 main vote, 2 tie-break
	Deadline   time.Time
	Votes      [MaxPlayersPerRoom]string
	Responded  [MaxPlayersPerRoom]bool
	Candidates []string // round 2 only: usernames still in contention
}

// roleCardState gates the first night until everyone has read their role or
// the timeout fires, whichever comes first.
type roleCardState struct {
	DoneCount int
	Total     int
	Deadline  time.Time
}

// Room is one game instance. ID 0 marks the slot unused; IDs are slot
// index + 1 and are only assigned while holding both the manager's createMu
// and the room's own lock.
type Room struct {
	mu sync.Mutex

	ID        int
	Name      string
	Players   []Player
	Status    RoomStatus
	HostConn  string
	StartedAt time.Time

	Night    nightState
	Day      dayState
	RoleCard roleCardState
}

// seatByConn returns the seat index for a connection, or -1.
func (r *Room) seatByConn(connID string) int {
	if connID == "" {
		return -1
	}
	for i := range r.Players {
		if r.Players[i].ConnID == connID {
			return i
		}
	}
	return -1
}

// seatByUsername returns the seat index for a username, or -1.
func (r *Room) seatByUsername(username string) int {
	for i := range r.Players {
		if r.Players[i].Username == username {
			return i
		}
	}
	return -1
}

func (r *Room) aliveCount() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].Alive {
			n++
		}
	}
	return n
}

func (r *Room) aliveWolves() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].Alive && r.Players[i].Role == RoleWerewolf {
			n++
		}
	}
	return n
}

func (r *Room) aliveRole(role Role) bool {
	for i := range r.Players {
		if r.Players[i].Alive && r.Players[i].Role == role {
			return true
		}
	}
	return false
}

// wolfQuotaMetLocked reports whether every living wolf has a standing kill
// vote. Always false with no wolves left; that case belongs to winnerLocked.
func (r *Room) wolfQuotaMetLocked() bool {
	wolves := r.aliveWolves()
	if wolves == 0 {
		return false
	}
	votes := 0
	for i := range r.Players {
		if r.Players[i].Alive && r.Players[i].Role == RoleWerewolf && r.Night.WolfVotes[i] != "" {
			votes++
		}
	}
	return votes == wolves
}

// dayRespondedLocked counts living players who voted or explicitly skipped.
func (r *Room) dayRespondedLocked() int {
	n := 0
	for i := range r.Players {
		if r.Players[i].Alive && r.Day.Responded[i] {
			n++
		}
	}
	return n
}

// resetLocked clears every field and frees the slot. Caller holds the lock.
func (r *Room) resetLocked() {
	r.ID = 0
	r.Name = ""
	r.Players = nil
	r.Status = StatusWaiting
	r.HostConn = ""
	r.StartedAt = time.Time{}
	r.Night = nightState{}
	r.Day = dayState{}
	r.RoleCard = roleCardState{}
}
