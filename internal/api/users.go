package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/12305/devTinder-Frontend/internal/models"
)

// UpdateProfile saves the editable profile fields and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, "PUT", "/users/profile", nil, update, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UploadProfilePicture uploads an image and returns its public URL.
func (c *Client) UploadProfilePicture(ctx context.Context, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("profilePicture", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/users/upload-profile-picture", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		PhotoURL string `json:"photoUrl"`
	}
	if err := c.roundTrip(req, &out); err != nil {
		return "", err
	}
	return out.PhotoURL, nil
}

// SetOnlineStatus pushes the viewer's presence. Best-effort: callers log
// failures and move on, they never block on this.
func (c *Client) SetOnlineStatus(ctx context.Context, online bool) error {
	body := map[string]bool{"isOnline": online}
	return c.do(ctx, "PUT", "/users/online-status", nil, body, nil)
}

// PotentialMatches fetches a discovery batch narrowed by the given filters.
func (c *Client) PotentialMatches(ctx context.Context, filters models.FilterOptions) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, "GET", "/users/potential-matches", filters.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}
