package game

import (
	"time"

	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/models"
	"github.com/moonvale/werewolf-server/network"
)

// startDayLocked opens the main voting round right after night resolution.
func (m *Manager) startDayLocked(r *Room) {
	r.Day = dayState{
		Active:   true,
		Round:    1,
		Deadline: time.Now().Add(m.cfg.Day),
	}
}

// Vote records one player's day vote. A named target must be a living
// player, same as the night actions. An empty target is an explicit skip:
// it counts as a response but never toward any tally. During the tie-break
// round, votes for players outside the candidate set are kept as responses
// but excluded from tallying (treated as abstentions). Re-voting before
// finalization overwrites, last write wins.
func (m *Manager) Vote(connID string, roomID int, targetUsername string) error {
	r := m.get(roomID)
	if r == nil {
		return ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ID != roomID {
		return ErrRoomNotFound
	}
	seat := r.seatByConn(connID)
	if seat == -1 {
		return ErrNotInRoom
	}
	if !r.Players[seat].Alive {
		return ErrDeadActor
	}
	if !r.Day.Active {
		return ErrPhaseClosed
	}
	if targetUsername != "" {
		target := r.seatByUsername(targetUsername)
		if target == -1 {
			return ErrTargetNotFound
		}
		if !r.Players[target].Alive {
			return ErrTargetDead
		}
	}

	r.Day.Votes[seat] = targetUsername
	r.Day.Responded[seat] = true

	alive := r.aliveCount()
	responded := r.dayRespondedLocked()

	m.broadcastLocked(r, network.MsgVoteStatus, voteStatusPayload{
		Responded: responded,
		Total:     alive,
	})

	// Early finalization: no reason to wait out the clock once every living
	// player has spoken.
	if responded == alive {
		m.finalizeDayLocked(r)
	}
	return nil
}

func (r *Room) isCandidateLocked(username string) bool {
	for _, c := range r.Day.Candidates {
		if c == username {
			return true
		}
	}
	return false
}

// finalizeDayLocked tallies the round and settles it: execution, tie-break
// round, random tie resolution, or nothing. Shared by the early-completion
// and timeout paths; Day.Active guards double finalization.
func (m *Manager) finalizeDayLocked(r *Room) {
	if !r.Day.Active {
		return
	}

	tally := make(map[string]int)
	for i := range r.Players {
		if !r.Players[i].Alive || !r.Day.Responded[i] {
			continue
		}
		v := r.Day.Votes[i]
		if v == "" {
			continue
		}
		if r.Day.Round == 2 && !r.isCandidateLocked(v) {
			continue
		}
		tally[v]++
	}

	top := topCandidates(tally, r)
	switch {
	case len(top) == 0:
		round := r.Day.Round
		r.Day = dayState{}
		m.broadcastLocked(r, network.MsgVoteResult, voteResultPayload{
			Result: "no_execution",
			Round:  round,
		})
		logger.Log.Infof("Room %d: day ends with no execution", r.ID)
		m.startNightLocked(r)

	case len(top) == 1:
		m.executeLocked(r, top[0], false)

	case r.Day.Round == 1:
		// Tie: run a shorter second round restricted to the tied leaders.
		round2 := dayState{
			Active:     true,
			Round:      2,
			Deadline:   time.Now().Add(m.cfg.TieBreak),
			Candidates: top,
		}
		r.Day = round2
		m.broadcastLocked(r, network.MsgVoteResult, voteResultPayload{
			Result:     "tie",
			Round:      2,
			Candidates: top,
			Duration:   int(m.cfg.TieBreak / time.Second),
		})
		logger.Log.Infof("Room %d: day vote tied between %v, starting tie-break", r.ID, top)

	default:
		// Still tied after the tie-break: settle it at random.
		chosen := top[m.newRand().Intn(len(top))]
		m.executeLocked(r, chosen, true)
	}
}

// executeLocked kills the voted player, announces it, and either ends the
// game or rolls straight into the next night.
func (m *Manager) executeLocked(r *Room, username string, random bool) {
	round := r.Day.Round
	if seat := r.seatByUsername(username); seat != -1 {
		r.Players[seat].Alive = false
	}
	r.Day = dayState{}

	result := voteResultPayload{
		Result:         "executed",
		Round:          round,
		TargetUsername: username,
		Random:         random,
	}
	if random {
		result.Message = "Vote tied after the revote; the executed player was chosen at random among the tied candidates"
	}
	m.broadcastLocked(r, network.MsgVoteResult, result)
	logger.Log.Infof("Room %d: executed %s (round %d, random=%v)", r.ID, username, round, random)

	if winner := r.winnerLocked(); winner != "" {
		m.endGameLocked(r, winner)
		return
	}
	m.startNightLocked(r)
}

// winnerLocked evaluates the win condition: villagers win when every wolf is
// dead; werewolves win the moment they are not outnumbered by the living
// non-wolves (they can no longer lose the majority).
func (r *Room) winnerLocked() string {
	wolves := r.aliveWolves()
	others := r.aliveCount() - wolves

	if wolves == 0 {
		return "villagers"
	}
	if wolves >= others {
		return "werewolves"
	}
	return ""
}

// endGameLocked broadcasts the full role reveal, hands a record to the
// persistence sink, and frees the room slot.
func (m *Manager) endGameLocked(r *Room, winner string) {
	r.Status = StatusFinished

	reveal := gameOverPayload{Winner: winner}
	for i := range r.Players {
		reveal.Players = append(reveal.Players, RevealedPlayer{
			Username: r.Players[i].Username,
			Role:     r.Players[i].Role.String(),
			IsAlive:  boolToInt(r.Players[i].Alive),
		})
	}
	m.broadcastLocked(r, network.MsgGameOver, reveal)
	logger.Log.Infof("Room %d: game over, %s win", r.ID, winner)

	if m.recorder != nil {
		record := &models.GameRecord{
			RoomID:    r.ID,
			RoomName:  r.Name,
			Winner:    winner,
			Duration:  int(time.Since(r.StartedAt) / time.Second),
			CreatedAt: time.Now(),
		}
		for i := range r.Players {
			p := &r.Players[i]
			outcome := "lose"
			if (winner == "werewolves") == (p.Role == RoleWerewolf) {
				outcome = "win"
			}
			record.Players = append(record.Players, models.PlayerOutcome{
				UserID:   p.UserID,
				Username: p.Username,
				Role:     p.Role.String(),
				Alive:    p.Alive,
				Outcome:  outcome,
			})
		}
		m.recorder.RecordGame(record)
	}

	r.resetLocked()
}
