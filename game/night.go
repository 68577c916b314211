package game

import (
	"time"

	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/network"
)

// startNightLocked opens a fresh night: all per-night fields reset, three
// strictly sequential action windows laid out from now, and the roster
// broadcast so clients can build their phase windows. Idempotent via
// Night.Active; both the role-card counter and the sweep may race into it.
func (m *Manager) startNightLocked(r *Room) {
	if r.Night.Active {
		return
	}

	now := time.Now()
	r.Night = nightState{Active: true}
	r.Night.SeerDeadline = now.Add(m.cfg.Seer)
	r.Night.GuardDeadline = r.Night.SeerDeadline.Add(m.cfg.Guard)
	r.Night.WolfDeadline = r.Night.GuardDeadline.Add(m.cfg.Wolf)
	r.Day = dayState{}
	r.RoleCard.Deadline = time.Time{}

	m.broadcastLocked(r, network.MsgPhaseNight, nightBeginPayload{
		SeerDuration:  int(m.cfg.Seer / time.Second),
		GuardDuration: int(m.cfg.Guard / time.Second),
		WolfDuration:  int(m.cfg.Wolf / time.Second),
		Players:       r.rosterLocked(),
	})

	logger.Log.Infof("Room %d: night begins (seer until %s, guard until %s, wolves until %s)",
		r.ID, r.Night.SeerDeadline.Format(time.TimeOnly),
		r.Night.GuardDeadline.Format(time.TimeOnly),
		r.Night.WolfDeadline.Format(time.TimeOnly))
}

// SeerCheck handles the seer's nightly investigation. A successful check (or
// an explicit empty-target pass) always advances straight to the guard
// window without waiting out the rest of the seer timer.
func (m *Manager) SeerCheck(connID string, roomID int, targetUsername string) error {
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
	p := &r.Players[seat]
	if !p.Alive {
		return ErrDeadActor
	}
	if p.Role != RoleSeer {
		return ErrWrongRole
	}
	if !r.Night.Active {
		return ErrPhaseClosed
	}
	if r.Night.SeerChoiceMade {
		return ErrAlreadyChosen
	}
	if time.Now().After(r.Night.SeerDeadline) {
		return ErrPhaseClosed
	}

	// Empty target is an explicit pass; the window closes with no result.
	if targetUsername == "" {
		r.Night.SeerChoiceMade = true
		m.advanceToGuardLocked(r)
		return nil
	}

	target := r.seatByUsername(targetUsername)
	if target == -1 {
		return ErrTargetNotFound
	}
	if !r.Players[target].Alive {
		return ErrTargetDead
	}

	r.Night.SeerChoiceMade = true
	r.Night.SeerTarget = targetUsername

	m.sendTo(connID, network.MsgSeerResult, seerResultPayload{
		Status:         "success",
		TargetUsername: targetUsername,
		IsWerewolf:     r.Players[target].Role == RoleWerewolf,
	})

	m.advanceToGuardLocked(r)
	return nil
}

// advanceToGuardLocked announces the guard window. Reached by seer action or
// seer timeout; the caller has already set SeerChoiceMade.
func (m *Manager) advanceToGuardLocked(r *Room) {
	m.broadcastLocked(r, network.MsgPhaseGuardStart, phaseStartPayload{
		Duration: int(m.cfg.Guard / time.Second),
	})
}

// GuardProtect handles the guard's nightly protection. Like the seer, a
// valid action advances immediately to the wolf window.
func (m *Manager) GuardProtect(connID string, roomID int, targetUsername string) error {
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
	p := &r.Players[seat]
	if !p.Alive {
		return ErrDeadActor
	}
	if p.Role != RoleGuard {
		return ErrWrongRole
	}
	if !r.Night.Active || !r.Night.SeerChoiceMade {
		return ErrPhaseClosed
	}
	if r.Night.GuardChoiceMade {
		return ErrAlreadyChosen
	}
	if time.Now().After(r.Night.GuardDeadline) {
		return ErrPhaseClosed
	}

	if targetUsername == "" {
		r.Night.GuardChoiceMade = true
		m.advanceToWolvesLocked(r)
		return nil
	}

	target := r.seatByUsername(targetUsername)
	if target == -1 {
		return ErrTargetNotFound
	}
	if !r.Players[target].Alive {
		return ErrTargetDead
	}

	r.Night.GuardChoiceMade = true
	r.Night.GuardProtected = targetUsername

	m.sendTo(connID, network.MsgGuardProtectRes, actionAckPayload{
		Status:         "success",
		TargetUsername: targetUsername,
	})

	m.advanceToWolvesLocked(r)
	return nil
}

func (m *Manager) advanceToWolvesLocked(r *Room) {
	m.broadcastLocked(r, network.MsgPhaseWolfStart, phaseStartPayload{
		Duration: int(m.cfg.Wolf / time.Second),
	})
}

// WolfVote records (or overwrites) one werewolf's standing kill vote. Once
// every living wolf has a vote down, the kill resolves immediately rather
// than waiting out the window.
func (m *Manager) WolfVote(connID string, roomID int, targetUsername string) error {
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
	p := &r.Players[seat]
	if !p.Alive {
		return ErrDeadActor
	}
	if p.Role != RoleWerewolf {
		return ErrWrongRole
	}
	if !r.Night.Active || r.Night.WolfKillDone {
		return ErrPhaseClosed
	}
	if time.Now().After(r.Night.WolfDeadline) {
		return ErrPhaseClosed
	}

	target := r.seatByUsername(targetUsername)
	if target == -1 {
		return ErrTargetNotFound
	}
	if !r.Players[target].Alive {
		return ErrTargetDead
	}

	// Last write wins; a wolf may change their mind until resolution.
	r.Night.WolfVotes[seat] = targetUsername

	m.sendTo(connID, network.MsgWolfKillRes, actionAckPayload{
		Status:         "success",
		TargetUsername: targetUsername,
	})

	if r.wolfQuotaMetLocked() && !r.Night.WolfKillDone {
		m.resolveWolfKillLocked(r)
	}
	return nil
}

// resolveWolfKillLocked tallies the standing wolf votes and settles the
// night. Shared by the early-completion and timeout paths; WolfKillDone
// guarantees it runs exactly once per night. Guard protection is evaluated
// here, at resolution time, so a protection recorded after the votes still
// counts.
func (m *Manager) resolveWolfKillLocked(r *Room) {
	if r.Night.WolfKillDone {
		return
	}
	r.Night.WolfKillDone = true
	r.Night.Active = false

	tally := make(map[string]int)
	for i := range r.Players {
		if r.Players[i].Alive && r.Players[i].Role == RoleWerewolf && r.Night.WolfVotes[i] != "" {
			tally[r.Night.WolfVotes[i]]++
		}
	}

	victim := ""
	if top := topCandidates(tally, r); len(top) > 0 {
		victim = top[0]
		if len(top) > 1 {
			victim = top[m.newRand().Intn(len(top))]
		}
	}

	result := dayBeginPayload{
		Result:   "no_kill",
		Duration: int(m.cfg.Day / time.Second),
	}
	if victim != "" && victim != r.Night.GuardProtected {
		if target := r.seatByUsername(victim); target != -1 {
			r.Players[target].Alive = false
			result.Result = "killed"
			result.TargetID = victim
		}
	}

	logger.Log.Infof("Room %d: night resolved, result=%s target=%s", r.ID, result.Result, result.TargetID)
	m.broadcastLocked(r, network.MsgPhaseDay, result)

	if winner := r.winnerLocked(); winner != "" {
		m.endGameLocked(r, winner)
		return
	}

	// Night chains straight into day; there is no idle gap.
	m.startDayLocked(r)
}

// topCandidates returns every username tied at the maximum tally, in seat
// order for deterministic iteration. Empty when there are no votes.
func topCandidates(tally map[string]int, r *Room) []string {
	max := 0
	for _, n := range tally {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil
	}
	var top []string
	for i := range r.Players {
		if tally[r.Players[i].Username] == max {
			top = append(top, r.Players[i].Username)
		}
	}
	return top
}
