package game

import (
	"time"

	"github.com/moonvale/werewolf-server/logger"
)

// Sweep runs one pass of deadline enforcement across every room. It is
// driven on a one-second tick and is safe to run concurrently with client
// actions: every transition it triggers is the same idempotent *Locked
// function the action path uses, so whichever side gets the room lock first
// wins and the other no-ops.
func (m *Manager) Sweep(now time.Time) {
	for i := range m.rooms {
		r := &m.rooms[i]
		r.mu.Lock()
		m.sweepRoomLocked(r, now)
		r.mu.Unlock()
	}
}

func (m *Manager) sweepRoomLocked(r *Room, now time.Time) {
	if r.ID == 0 {
		return
	}

	if r.Status == StatusPlaying {
		// Role-card timeout: stragglers who never confirmed do not hold the
		// game hostage.
		if !r.RoleCard.Deadline.IsZero() && !r.Night.Active && !now.Before(r.RoleCard.Deadline) {
			logger.Log.Infof("Room %d: role card window expired (%d/%d confirmed)",
				r.ID, r.RoleCard.DoneCount, r.RoleCard.Total)
			m.startNightLocked(r)
		}

		if r.Night.Active {
			if !r.Night.SeerChoiceMade && !now.Before(r.Night.SeerDeadline) {
				r.Night.SeerChoiceMade = true
				logger.Log.Infof("Room %d: seer window expired", r.ID)
				m.advanceToGuardLocked(r)
			}
			if r.Night.SeerChoiceMade && !r.Night.GuardChoiceMade && !now.Before(r.Night.GuardDeadline) {
				r.Night.GuardChoiceMade = true
				logger.Log.Infof("Room %d: guard window expired", r.ID)
				m.advanceToWolvesLocked(r)
			}
			if !r.Night.WolfKillDone && !now.Before(r.Night.WolfDeadline) {
				logger.Log.Infof("Room %d: wolf window expired", r.ID)
				m.resolveWolfKillLocked(r)
			}
		}

		// Resolution above may have ended the game and freed the slot.
		if r.ID == 0 {
			return
		}

		if r.Day.Active && !now.Before(r.Day.Deadline) {
			logger.Log.Infof("Room %d: vote window expired (round %d)", r.ID, r.Day.Round)
			m.finalizeDayLocked(r)
		}
		if r.ID == 0 {
			return
		}

		// Grace-period backstop for seats that somehow kept Alive across a
		// disconnect. The normal path marks them dead immediately.
		killed := false
		for i := range r.Players {
			p := &r.Players[i]
			if p.ConnID == "" && p.Alive && !p.DisconnectedAt.IsZero() &&
				!now.Before(p.DisconnectedAt.Add(m.cfg.DisconnectGrace)) {
				p.Alive = false
				killed = true
				logger.Log.Warnf("Room %d: %s removed after disconnect grace expired", r.ID, p.Username)
			}
		}
		if killed {
			if winner := r.winnerLocked(); winner != "" {
				m.endGameLocked(r, winner)
				return
			}
		}
	}

	// A room with no live connections left serves nobody.
	for i := range r.Players {
		if r.Players[i].ConnID != "" {
			return
		}
	}
	logger.Log.Infof("Room %d (%s): last connection gone, releasing slot", r.ID, r.Name)
	r.resetLocked()
}
