package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.clerk.com/v1"

// Client writes back into the Clerk Backend API (server-side).
type Client struct {
	httpClient *http.Client
	secretKey  string
	baseURL    string
}

// NewClient creates a Clerk Backend API client. secretKey must be non-empty
// for writes to succeed.
func NewClient(secretKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		secretKey:  strings.TrimSpace(secretKey),
		baseURL:    defaultBaseURL,
	}
}

type metadataPatch struct {
	PublicMetadata map[string]string `json:"public_metadata"`
}

// WriteUserID stores the internal database id in the Clerk user's public
// metadata so the front end can resolve it from the session.
func (c *Client) WriteUserID(ctx context.Context, clerkID, userID string) error {
	if c.secretKey == "" {
		return fmt.Errorf("clerk secret key not configured")
	}
	if strings.TrimSpace(clerkID) == "" {
		return fmt.Errorf("clerk user id is required")
	}

	body, err := json.Marshal(metadataPatch{PublicMetadata: map[string]string{"userId": userID}})
	if err != nil {
		return err
	}

	url := c.baseURL + "/users/" + clerkID + "/metadata"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("clerk api status %d", resp.StatusCode)
	}
	return nil
}
