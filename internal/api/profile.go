package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/verte-zerg/typemaster/internal/model"
)

type profileStatsResponse struct {
	BestWPM             int    `json:"best_wpm"`
	BestAccuracy        int    `json:"best_accuracy"`
	PreferredDifficulty string `json:"preferred_difficulty"`
}

// Profile merges the profile info with the best-score stats.
func (c *Client) Profile(ctx context.Context, s model.Session) (model.ProfileStats, error) {
	if err := requireSession(s); err != nil {
		return model.ProfileStats{}, err
	}
	var info model.Profile
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/profile/",
		query:  usernameQuery(s),
		token:  s.Token,
	}, &info); err != nil {
		return model.ProfileStats{}, fmt.Errorf("profile: %w", err)
	}
	var stats profileStatsResponse
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/profile/stats/",
		query:  usernameQuery(s),
		token:  s.Token,
	}, &stats); err != nil {
		return model.ProfileStats{}, fmt.Errorf("profile stats: %w", err)
	}
	if info.Username == "" {
		info.Username = s.Username
	}
	return model.ProfileStats{
		Profile:             info,
		BestWPM:             stats.BestWPM,
		BestAccuracy:        stats.BestAccuracy,
		PreferredDifficulty: stats.PreferredDifficulty,
	}, nil
}

// UpdateProfile sends the bio and, when set, the image file as multipart form data.
func (c *Client) UpdateProfile(ctx context.Context, s model.Session, update model.ProfileUpdate) (model.Profile, error) {
	if err := requireSession(s); err != nil {
		return model.Profile{}, err
	}
	body, contentType, err := profileForm(update)
	if err != nil {
		return model.Profile{}, err
	}
	var updated model.Profile
	if err := c.do(ctx, request{
		method:      http.MethodPut,
		path:        "/api/profile/",
		query:       usernameQuery(s),
		token:       s.Token,
		body:        body,
		contentType: contentType,
	}, &updated); err != nil {
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	if updated.Username == "" {
		updated.Username = s.Username
	}
	return updated, nil
}

func profileForm(update model.ProfileUpdate) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if update.ImagePath != "" {
		file, err := os.Open(update.ImagePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open image: %w", err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				// Best-effort close for read-only image.
				_ = cerr
			}
		}()
		part, err := writer.CreateFormFile("profile_image", filepath.Base(update.ImagePath))
		if err != nil {
			return nil, "", fmt.Errorf("failed to build form: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("failed to read image: %w", err)
		}
	}
	if err := writer.WriteField("bio", update.Bio); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
