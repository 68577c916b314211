package game

// Wire payloads. Field names are a stable contract with the desktop client
// and must be preserved byte-for-byte.

// RosterEntry is one seat in a roster broadcast. IsAlive is an integer on
// the wire (the client treats it as a truthy int).
type RosterEntry struct {
	Username string `json:"username"`
	IsAlive  int    `json:"is_alive"`
	Role     int    `json:"role"`
}

type roleRevealPayload struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	Role            int      `json:"role"`
	RoleName        string   `json:"role_name"`
	RoleIcon        string   `json:"role_icon"`
	RoleDescription string   `json:"role_description"`
	WerewolfTeam    []string `json:"werewolf_team,omitempty"`
}

type nightBeginPayload struct {
	SeerDuration  int           `json:"seer_duration"`
	GuardDuration int           `json:"guard_duration"`
	WolfDuration  int           `json:"wolf_duration"`
	Players       []RosterEntry `json:"players"`
}

type phaseStartPayload struct {
	Duration int `json:"duration"`
}

type seerResultPayload struct {
	Status         string `json:"status"`
	TargetUsername string `json:"target_username"`
	IsWerewolf     bool   `json:"is_werewolf"`
}

type actionAckPayload struct {
	Status         string `json:"status"`
	TargetUsername string `json:"target_username"`
}

type dayBeginPayload struct {
	Result   string `json:"result"` // "killed" or "no_kill"
	TargetID string `json:"targetId,omitempty"`
	Duration int    `json:"duration"`
}

type voteStatusPayload struct {
	Responded int `json:"responded"`
	Total     int `json:"total"`
}

type voteResultPayload struct {
	Result         string   `json:"result"` // "executed", "no_execution", "tie"
	Round          int      `json:"round"`
	TargetUsername string   `json:"target_username,omitempty"`
	Candidates     []string `json:"candidates,omitempty"`
	Duration       int      `json:"duration,omitempty"`
	Random         bool     `json:"random,omitempty"`
	Message        string   `json:"message,omitempty"`
}

type gameOverPayload struct {
	Winner  string           `json:"winner"`
	Players []RevealedPlayer `json:"players"`
}

// RevealedPlayer is the full role reveal at game over. Role is the lowercase
// role name here, not the numeric tag.
type RevealedPlayer struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	IsAlive  int    `json:"is_alive"`
}

type roomUpdatePayload struct {
	Type           string `json:"type"` // player_joined, player_left, player_disconnected
	Username       string `json:"username"`
	CurrentPlayers int    `json:"current_players,omitempty"`
	Message        string `json:"message,omitempty"`
	GameStarted    bool   `json:"game_started,omitempty"`
	NewHost        string `json:"new_host,omitempty"`
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *Room) rosterLocked() []RosterEntry {
	roster := make([]RosterEntry, 0, len(r.Players))
	for i := range r.Players {
		roster = append(roster, RosterEntry{
			Username: r.Players[i].Username,
			IsAlive:  boolToInt(r.Players[i].Alive),
			Role:     int(r.Players[i].Role),
		})
	}
	return roster
}
