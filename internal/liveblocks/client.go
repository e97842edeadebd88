// Package liveblocks bootstraps realtime collaboration rooms through the
// Liveblocks REST API.
package liveblocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned by a client built without a secret key.
var ErrNotConfigured = errors.New("liveblocks is not configured")

type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewClient returns nil when secretKey is empty.
func NewClient(baseURL, secretKey string) *Client {
	if secretKey == "" {
		return nil
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type createRoomRequest struct {
	ID              string              `json:"id"`
	DefaultAccesses []string            `json:"defaultAccesses"`
	GroupsAccesses  map[string][]string `json:"groupsAccesses,omitempty"`
	Metadata        map[string]string   `json:"metadata,omitempty"`
}

// Room describes the room to create. Members of Group get write access;
// everyone else has none.
type Room struct {
	ID       string
	Group    string
	Metadata map[string]string
}

// EnsureRoom creates the room, treating "already exists" as success. It
// reports whether this call created it.
func (c *Client) EnsureRoom(ctx context.Context, room Room) (bool, error) {
	if c == nil {
		return false, ErrNotConfigured
	}
	body := createRoomRequest{
		ID:              room.ID,
		DefaultAccesses: []string{},
		Metadata:        room.Metadata,
	}
	if room.Group != "" {
		body.GroupsAccesses = map[string][]string{room.Group: {"room:write"}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("encode room: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/rooms", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	return false, fmt.Errorf("create room: liveblocks returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
