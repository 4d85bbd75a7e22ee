package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/verte-zerg/typemaster/internal/model"
)

// ListResults returns every stored result of the session user.
func (c *Client) ListResults(ctx context.Context, s model.Session) ([]model.TypingResult, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	req := request{
		method: http.MethodGet,
		path:   "/api/results/",
		query:  usernameQuery(s),
		token:  s.Token,
	}
	var results []model.TypingResult
	if err := c.do(ctx, req, &results); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// SaveResult persists one finished test.
func (c *Client) SaveResult(ctx context.Context, s model.Session, sub model.ResultSubmission) error {
	if sub.Username == "" {
		sub.Username = s.Username
	}
	req, err := jsonRequest(http.MethodPost, "/api/results/save/", sub)
	if err != nil {
		return err
	}
	req.token = s.Token
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// ClearResults deletes all results of the session user.
func (c *Client) ClearResults(ctx context.Context, s model.Session) error {
	if err := requireSession(s); err != nil {
		return err
	}
	req, err := jsonRequest(http.MethodDelete, "/api/results/clear/", struct {
		Username string `json:"username"`
	}{Username: s.Username})
	if err != nil {
		return err
	}
	req.token = s.Token
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

type typingTextResponse struct {
	Content string `json:"content"`
}

// TypingText fetches a sample text for difficulty.
func (c *Client) TypingText(ctx context.Context, difficulty model.Difficulty) (string, error) {
	req := request{
		method: http.MethodGet,
		path:   "/api/typing-text/",
		query:  url.Values{"difficulty": []string{difficulty.Query()}},
	}
	var resp typingTextResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("typing text: %w", err)
	}
	return resp.Content, nil
}
