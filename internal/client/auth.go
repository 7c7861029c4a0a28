package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
)

const sessionName = "FileStation"

// Login opens a FileStation session and keeps its sid for later calls.
func (c *APIClient) Login(ctx context.Context) error {
	logger.Info("Logging in user %s", c.config.Username)

	if c.config.Password == "" {
		return fmt.Errorf("missing password for user %s", c.config.Username)
	}

	params := url.Values{
		"account": {c.config.Username},
		"passwd":  {c.config.Password},
		"session": {sessionName},
		"format":  {"sid"},
	}

	data, err := c.Call(ctx, NewRequest(APIAuth, "login", params))
	if err != nil {
		return fmt.Errorf("failed to login user %s: %w", c.config.Username, err)
	}

	var response models.LoginResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if response.SID == "" {
		return fmt.Errorf("login response for user %s carried no sid", c.config.Username)
	}

	c.setSessionID(response.SID)
	logger.Debug("User %s logged in successfully", c.config.Username)
	return nil
}

// Logout closes the current session. It is a no-op when logged out.
func (c *APIClient) Logout(ctx context.Context) error {
	if c.SessionID() == "" {
		return nil
	}

	logger.Info("Logging out user %s", c.config.Username)

	params := url.Values{"session": {sessionName}}
	if _, err := c.Call(ctx, NewRequest(APIAuth, "logout", params)); err != nil {
		return fmt.Errorf("failed to logout user %s: %w", c.config.Username, err)
	}

	c.setSessionID("")
	logger.Debug("User %s logged out successfully", c.config.Username)
	return nil
}
