package api

import (
	"context"

	"github.com/12305/devTinder-Frontend/internal/models"
)

// Swipe submits a like/pass decision against a candidate. The result reports
// whether the decision produced a mutual match.
func (c *Client) Swipe(ctx context.Context, targetUserID string, action models.SwipeAction) (*models.SwipeResult, error) {
	body := map[string]string{
		"targetUserId": targetUserID,
		"action":       string(action),
	}
	var out models.SwipeResult
	if err := c.do(ctx, "POST", "/matches/swipe", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyMatches returns the identities the viewer has mutually matched with.
func (c *Client) MyMatches(ctx context.Context) ([]models.User, error) {
	var out struct {
		Matches []models.User `json:"matches"`
	}
	if err := c.do(ctx, "GET", "/matches/my-matches", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}
