package game

import (
	"github.com/moonvale/werewolf-server/network"
)

// Role is the closed set of werewolf roles. The numeric values are part of
// the wire contract.
type Role int

const (
	RoleVillager Role = 0
	RoleWerewolf Role = 1
	RoleSeer     Role = 2
	RoleGuard    Role = 3
)

func (role Role) String() string {
	switch role {
	case RoleWerewolf:
		return "werewolf"
	case RoleSeer:
		return "seer"
	case RoleGuard:
		return "guard"
	default:
		return "villager"
	}
}

// Distribution is the role split for a given player count.
type Distribution struct {
	Werewolves int
	Seers      int
	Guards     int
	Villagers  int
}

// ValidateRoleDistribution computes the role split: always one seer and one
// guard, two werewolves up to 8 players and three beyond, everyone else a
// villager. Invalid when that leaves no villager.
func ValidateRoleDistribution(playerCount int) (Distribution, bool) {
	d := Distribution{Seers: 1, Guards: 1}

	if playerCount <= 8 {
		d.Werewolves = 2
	} else {
		d.Werewolves = 3
	}

	d.Villagers = playerCount - d.Werewolves - d.Seers - d.Guards
	if d.Villagers < 1 {
		return Distribution{}, false
	}
	return d, true
}

// buildDeck lays out the role multiset in a fixed order; the shuffle is what
// randomizes seat assignment.
func buildDeck(d Distribution, playerCount int) []Role {
	deck := make([]Role, 0, playerCount)
	for i := 0; i < d.Werewolves; i++ {
		deck = append(deck, RoleWerewolf)
	}
	deck = append(deck, RoleSeer)
	deck = append(deck, RoleGuard)
	for i := 0; i < d.Villagers; i++ {
		deck = append(deck, RoleVillager)
	}
	return deck
}

// shuffleRoles applies a uniform Fisher-Yates shuffle in place.
func (m *Manager) shuffleRoles(deck []Role) {
	rng := m.newRand()
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

type roleInfo struct {
	name        string
	icon        string
	description string
}

var roleInfos = map[Role]roleInfo{
	RoleVillager: {
		name: "Villager",
		icon: "👨",
		description: "You are a VILLAGER! You have no special abilities, but your vote matters. " +
			"Work with others to find and eliminate the werewolves.",
	},
	RoleWerewolf: {
		name: "Werewolf",
		icon: "🐺",
		description: "You are a WEREWOLF! You know other werewolves. At night, discuss with your " +
			"team to kill one villager. Your goal: Eliminate all villagers.",
	},
	RoleSeer: {
		name: "Seer",
		icon: "🔮",
		description: "You are the SEER! Each night, you can check one player to know if they are " +
			"a werewolf or not. Use your knowledge wisely to guide the village.",
	},
	RoleGuard: {
		name: "Guard",
		icon: "🛡️",
		description: "You are the GUARD! Each night, you can protect one player from werewolf " +
			"attacks. Choose wisely to save the village.",
	},
}

// werewolfTeamLocked lists the other living-or-dead werewolves' usernames
// for the reveal sent to seat `self`. Caller holds the room lock.
func (r *Room) werewolfTeamLocked(self int) []string {
	team := make([]string, 0, 2)
	for i := range r.Players {
		if i != self && r.Players[i].Role == RoleWerewolf {
			team = append(team, r.Players[i].Username)
		}
	}
	return team
}

// sendRoleRevealLocked sends each seat its private role card.
func (m *Manager) sendRoleRevealLocked(r *Room, seat int) {
	p := &r.Players[seat]
	info := roleInfos[p.Role]
	payload := roleRevealPayload{
		Status:          "success",
		Message:         "Game started",
		Role:            int(p.Role),
		RoleName:        info.name,
		RoleIcon:        info.icon,
		RoleDescription: info.description,
	}
	if p.Role == RoleWerewolf {
		payload.WerewolfTeam = r.werewolfTeamLocked(seat)
	}
	m.sendTo(p.ConnID, network.MsgGameStartResAndRole, payload)
}
