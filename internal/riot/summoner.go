package riot

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Summoner is the Summoner-V4 payload
type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int64  `json:"summonerLevel"`
}

// LeagueEntry is one ranked queue entry from League-V4
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// Winrate returns the win percentage rounded to one decimal
func (e *LeagueEntry) Winrate() float64 {
	total := e.Wins + e.Losses
	if total == 0 {
		return 0
	}
	return float64(int(float64(e.Wins)/float64(total)*1000+0.5)) / 10
}

const soloQueueType = "RANKED_SOLO_5x5"

// rankColors holds embed colors per tier
var rankColors = map[string]int{
	"IRON":        0x8B4513,
	"BRONZE":      0xCD7F32,
	"SILVER":      0xC0C0C0,
	"GOLD":        0xFFD700,
	"PLATINUM":    0x40E0D0,
	"EMERALD":     0x50C878,
	"DIAMOND":     0xB9F2FF,
	"MASTER":      0x9932CC,
	"GRANDMASTER": 0xFF0000,
	"CHALLENGER":  0x00CED1,
}

const (
	unrankedColor = 0x808080
	defaultColor  = 0x5CDBF0
)

// RankColor returns the embed color for a tier; "" means unranked
func RankColor(tier string) int {
	if tier == "" || strings.EqualFold(tier, "unranked") {
		return unrankedColor
	}
	if c, ok := rankColors[strings.ToUpper(tier)]; ok {
		return c
	}
	return defaultColor
}

// GetSummonerByPUUID retrieves the summoner profile on a platform
func (c *Client) GetSummonerByPUUID(ctx context.Context, puuid, platform string) (*Summoner, error) {
	endpoint := c.url(platform, fmt.Sprintf("/lol/summoner/v4/summoners/by-puuid/%s", url.PathEscape(puuid)))

	var s Summoner
	if err := c.get(ctx, endpoint, &s); err != nil {
		return nil, fmt.Errorf("failed to get summoner: %w", err)
	}
	return &s, nil
}

// GetLeagueEntries retrieves ranked entries for a player
func (c *Client) GetLeagueEntries(ctx context.Context, puuid, platform string) ([]LeagueEntry, error) {
	endpoint := c.url(platform, fmt.Sprintf("/lol/league/v4/entries/by-puuid/%s", url.PathEscape(puuid)))

	var entries []LeagueEntry
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("failed to get league entries: %w", err)
	}
	return entries, nil
}

// SoloQueue returns the solo/duo entry, or nil when unranked
func SoloQueue(entries []LeagueEntry) *LeagueEntry {
	for i := range entries {
		if entries[i].QueueType == soloQueueType {
			return &entries[i]
		}
	}
	return nil
}
