package riot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Team identifiers used by the spectator API
const (
	TeamBlue = 100
	TeamRed  = 200
)

// ActiveGame is the live game payload from the Spectator-V5 API
type ActiveGame struct {
	GameID       int64         `json:"gameId"`
	QueueID      int           `json:"gameQueueConfigId"`
	GameLength   int64         `json:"gameLength"` // seconds since start
	Participants []Participant `json:"participants"`
}

// Participant is a player in a live game
type Participant struct {
	PUUID      string `json:"puuid"`
	RiotID     string `json:"riotId"`
	ChampionID int    `json:"championId"`
	TeamID     int    `json:"teamId"`
}

// Team returns the participants of one side, in API order
func (g *ActiveGame) Team(teamID int) []Participant {
	var out []Participant
	for _, p := range g.Participants {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// FindParticipant finds a participant in the game by PUUID
func (g *ActiveGame) FindParticipant(puuid string) *Participant {
	for i := range g.Participants {
		if g.Participants[i].PUUID == puuid {
			return &g.Participants[i]
		}
	}
	return nil
}

// PresenceResult is the tagged outcome of a live presence lookup.
// Game is set only when Status is StatusOK.
type PresenceResult struct {
	Status Status
	Code   int
	Game   *ActiveGame
	Err    error
}

// InGame reports whether the player is currently in any game
func (r PresenceResult) InGame() bool {
	return r.Status == StatusOK && r.Game != nil
}

// InTrackedGame reports whether the player is in a tracked queue
func (r PresenceResult) InTrackedGame() bool {
	return r.InGame() && IsTrackedQueue(r.Game.QueueID)
}

// Known reports whether the lookup produced a definite answer. NotFound is
// a definite "not in game"; every other failure is unknown for this cycle.
func (r PresenceResult) Known() bool {
	return r.Status == StatusOK || r.Status == StatusNotFound
}

// FetchLivePresence looks up the active game of a player on a platform
func (c *Client) FetchLivePresence(ctx context.Context, puuid, platform string) PresenceResult {
	endpoint := c.url(platform, fmt.Sprintf("/lol/spectator/v5/active-games/by-summoner/%s", url.PathEscape(puuid)))

	var game ActiveGame
	if err := c.get(ctx, endpoint, &game); err != nil {
		res := PresenceResult{Status: StatusOf(err), Err: err}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			res.Code = apiErr.Code
		}
		return res
	}

	return PresenceResult{Status: StatusOK, Code: 200, Game: &game}
}
