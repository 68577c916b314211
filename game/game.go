// Package game holds the werewolf game core: the room registry, role
// assignment, and the night/day phase controllers driven jointly by client
// actions and the periodic deadline sweep.
package game

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/models"
)

const (
	MaxRooms          = 10
	MaxPlayersPerRoom = 12
	MinPlayersToStart = 6
)

// Validation failures reported back to the requesting connection. The timer
// sweep never surfaces any of these; it only transitions state or no-ops.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNoFreeRooms      = errors.New("no available rooms")
	ErrAlreadyInRoom    = errors.New("you are already in a room")
	ErrNotInRoom        = errors.New("you are not in any room")
	ErrInvalidRoomName  = errors.New("room name must be 1-49 characters")
	ErrGameInProgress   = errors.New("game already started")
	ErrNotHost          = errors.New("only host can start the game")
	ErrNotEnoughPlayers = errors.New("need at least 6 players to start")
	ErrBadDistribution  = errors.New("invalid player count for role distribution")
	ErrWrongRole        = errors.New("your role cannot perform this action")
	ErrDeadActor        = errors.New("dead players cannot act")
	ErrPhaseClosed      = errors.New("this phase is not accepting actions")
	ErrAlreadyChosen    = errors.New("you have already acted this night")
	ErrTargetNotFound   = errors.New("target player not found")
	ErrTargetDead       = errors.New("target player is already dead")
)

// Sender delivers one message to one connection. Implementations must be
// non-blocking from the game's point of view; a dead client absorbs the
// failure.
type Sender interface {
	Send(connID string, msgType uint16, data []byte) error
}

// Recorder receives finished games for persistence. Implementations must not
// block the caller.
type Recorder interface {
	RecordGame(record *models.GameRecord)
}

// Durations are the phase timing knobs, all fixed at game start.
type Durations struct {
	RoleCard        time.Duration
	Seer            time.Duration
	Guard           time.Duration
	Wolf            time.Duration
	Day             time.Duration
	TieBreak        time.Duration
	DisconnectGrace time.Duration
}

func DefaultDurations() Durations {
	return Durations{
		RoleCard:        30 * time.Second,
		Seer:            30 * time.Second,
		Guard:           30 * time.Second,
		Wolf:            30 * time.Second,
		Day:             60 * time.Second,
		TieBreak:        30 * time.Second,
		DisconnectGrace: 2 * time.Minute,
	}
}

// Manager owns the fixed-capacity room registry and implements every state
// transition. Rooms are value slots; a slot with ID 0 is unused. Each room
// carries its own mutex held for the whole of any client-action handler or
// sweep evaluation touching it, so mutations within a room never interleave.
type Manager struct {
	rooms    [MaxRooms]Room
	createMu sync.Mutex // serializes slot allocation

	sender   Sender
	recorder Recorder
	cfg      Durations

	// newRand is re-seeded per resolution so tie-break outcomes are not
	// correlated across rooms. Overridable in tests.
	newRand func() *rand.Rand
}

func NewManager(sender Sender, cfg Durations) *Manager {
	return &Manager{
		sender:  sender,
		cfg:     cfg,
		newRand: func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// SetRecorder wires an optional persistence sink for finished games.
func (m *Manager) SetRecorder(r Recorder) {
	m.recorder = r
}

// sendTo marshals and delivers one payload, logging and dropping on failure.
func (m *Manager) sendTo(connID string, msgType uint16, payload interface{}) {
	if connID == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal payload for msg %d: %v", msgType, err)
		return
	}
	if err := m.sender.Send(connID, msgType, data); err != nil {
		logger.Log.Debugf("Dropped send to %s (msg %d): %v", connID, msgType, err)
	}
}

// broadcastLocked delivers one payload to every seated player that still has
// a live connection. Caller holds the room lock.
func (m *Manager) broadcastLocked(r *Room, msgType uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal broadcast for msg %d: %v", msgType, err)
		return
	}
	for i := range r.Players {
		if connID := r.Players[i].ConnID; connID != "" {
			if err := m.sender.Send(connID, msgType, data); err != nil {
				logger.Log.Debugf("Dropped broadcast to %s (msg %d): %v", connID, msgType, err)
			}
		}
	}
}
