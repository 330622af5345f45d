package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func liveRequest(t *testing.T, pollID uint, token string) *http.Request {
	t.Helper()

	path := fmt.Sprintf("/api/polls/%d/live", pollID)
	if token != "" {
		path += "?token=" + token
	}
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

func TestPollLiveUpgradeRequiresToken(t *testing.T) {
	app := setupApp(t)
	owner, _ := createUser(t, "alice")
	group := createGroup(t, owner)
	poll := createPoll(t, group, owner)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(liveRequest(t, poll.ID, tc.token), 5000)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestPollLiveUpgradeRejectsTempToken(t *testing.T) {
	app := setupApp(t)
	owner, _ := createUser(t, "alice")
	group := createGroup(t, owner)
	poll := createPoll(t, group, owner)

	tempToken, err := generateToken(&owner, true)
	if err != nil {
		t.Fatalf("temp token: %v", err)
	}

	resp, err := app.Test(liveRequest(t, poll.ID, tempToken), 5000)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPollLiveRequiresUpgradeHeader(t *testing.T) {
	app := setupApp(t)
	owner, token := createUser(t, "alice")
	group := createGroup(t, owner)
	poll := createPoll(t, group, owner)

	// A plain GET without websocket headers is not upgraded.
	path := fmt.Sprintf("/api/polls/%d/live?token=%s", poll.ID, token)
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), 5000)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
