package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/verte-zerg/typemaster/internal/model"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// Signup creates a user.
func (c *Client) Signup(ctx context.Context, username, password string) error {
	req, err := jsonRequest(http.MethodPost, "/api/signup/", credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// Login authenticates and returns the session to persist.
func (c *Client) Login(ctx context.Context, username, password string) (model.Session, error) {
	req, err := jsonRequest(http.MethodPost, "/api/login/", credentials{Username: username, Password: password})
	if err != nil {
		return model.Session{}, err
	}
	var resp loginResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return model.Session{}, fmt.Errorf("login: %w", err)
	}
	name := strings.TrimSpace(resp.User.Username)
	if name == "" {
		return model.Session{}, fmt.Errorf("login: %w: missing user.username", ErrDecode)
	}
	return model.Session{Username: name, Token: resp.Token}, nil
}

// Logout invalidates the session token on the backend.
func (c *Client) Logout(ctx context.Context, s model.Session) error {
	req, err := jsonRequest(http.MethodPost, "/api/logout/", struct{}{})
	if err != nil {
		return err
	}
	req.token = s.Token
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
