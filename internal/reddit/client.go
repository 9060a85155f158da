package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/real-or-render/daily-leaderboard/internal/config"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
)

// Client resolves player display identities and posts score comments through
// the Reddit API. It holds no leaderboard state; callers treat every method
// as best-effort.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Reddit API client
func NewClient(cfg *config.RedditConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// userData mirrors the fields this service needs from the account lookup.
type userData struct {
	Name         string `json:"name"`
	SnoovatarImg string `json:"snoovatar_img"`
}

// accountID normalizes a player id to the t2_-prefixed form the API expects.
func accountID(playerID string) string {
	if strings.HasPrefix(playerID, "t2_") {
		return playerID
	}
	return "t2_" + playerID
}

// Resolve fetches the display identity for a player id.
func (c *Client) Resolve(ctx context.Context, playerID string) (*domain.Identity, error) {
	id := accountID(playerID)
	endpoint := fmt.Sprintf("%s/api/user_data_by_account_ids?ids=%s", c.baseURL, url.QueryEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building identity request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching identity: unexpected status %d", resp.StatusCode)
	}

	var payload map[string]userData
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding identity response: %w", err)
	}

	data, ok := payload[id]
	if !ok || data.Name == "" {
		return nil, domain.ErrPlayerNotFound
	}

	return &domain.Identity{
		Username:     data.Name,
		SnoovatarURL: data.SnoovatarImg,
	}, nil
}

// commentResponse is the subset of the comment API response this service reads.
type commentResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
		Data   struct {
			Things []struct {
				Data struct {
					Name string `json:"name"`
				} `json:"data"`
			} `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// SubmitComment posts a comment on a post and returns the new comment's
// fullname.
func (c *Client) SubmitComment(ctx context.Context, postID, text string) (string, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", postID)
	form.Set("text", text)

	endpoint := c.baseURL + "/api/comment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building comment request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("posting comment: unexpected status %d", resp.StatusCode)
	}

	var payload commentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding comment response: %w", err)
	}
	if len(payload.JSON.Errors) > 0 {
		return "", fmt.Errorf("posting comment: api error %v", payload.JSON.Errors[0])
	}
	if len(payload.JSON.Data.Things) == 0 {
		return "", fmt.Errorf("posting comment: empty response")
	}

	return payload.JSON.Data.Things[0].Data.Name, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.userAgent)
}
