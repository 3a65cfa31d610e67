package riot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidRiotID is returned when a Name#Tag string is malformed
var ErrInvalidRiotID = errors.New("invalid Riot ID")

// Account represents a Riot account from the Account-V1 API
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID returns the display handle Name#Tag
func (a *Account) RiotID() string {
	return a.GameName + "#" + a.TagLine
}

// ParseRiotID validates and splits a Name#Tag handle
func ParseRiotID(input string) (gameName, tagLine string, err error) {
	input = strings.TrimSpace(input)
	if input == "" || !strings.Contains(input, "#") {
		return "", "", fmt.Errorf("%w: use Name#TAG", ErrInvalidRiotID)
	}

	parts := strings.Split(input, "#")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: only one # allowed", ErrInvalidRiotID)
	}

	gameName = strings.TrimSpace(parts[0])
	tagLine = strings.TrimSpace(parts[1])

	if gameName == "" || tagLine == "" {
		return "", "", fmt.Errorf("%w: name and tag cannot be empty", ErrInvalidRiotID)
	}
	if len([]rune(gameName)) > 16 || len([]rune(tagLine)) > 5 {
		return "", "", fmt.Errorf("%w: name max 16 characters, tag max 5", ErrInvalidRiotID)
	}
	if strings.ContainsAny(gameName+tagLine, "\n\r\t\x00") {
		return "", "", fmt.Errorf("%w: forbidden characters", ErrInvalidRiotID)
	}

	return gameName, tagLine, nil
}

// GetAccountByRiotID retrieves account information by Riot ID. The platform
// selects the regional cluster the lookup is routed to.
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine, platform string) (*Account, error) {
	endpoint := c.url(RegionalHost(platform), fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(gameName), url.PathEscape(tagLine)))

	var account Account
	if err := c.get(ctx, endpoint, &account); err != nil {
		return nil, fmt.Errorf("failed to get account by Riot ID: %w", err)
	}
	if account.PUUID == "" {
		return nil, &APIError{Status: StatusNotFound, Code: 200, Err: errors.New("missing puuid")}
	}

	return &account, nil
}
