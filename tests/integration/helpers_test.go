//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/alexvite/curriculum-vitae/internal/testutil"
	"github.com/stretchr/testify/require"
)

type meetingResponse struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  *string  `json:"description"`
	Date         string   `json:"date"`
	Time         *string  `json:"time"`
	Level        *string  `json:"level"`
	Participants []string `json:"participants"`
	CreatorID    *string  `json:"creator_id"`
}

func strPtr(s string) *string { return &s }

// newUserClient registers a fresh account and returns a client logged in as it.
func newUserClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	email := testutil.RandomEmail()
	client.Signup(t, email, "password123")
	client.LoginAs(t, email, "password123")
	return client
}

// newAdminClient returns a client logged in as the bootstrapped admin.
func newAdminClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, adminEmail, adminPassword)
	return client
}

// createTestMeeting creates a meeting and deletes it when the test ends.
func createTestMeeting(t *testing.T, client *testutil.Client, title string, description *string, date string) meetingResponse {
	t.Helper()

	resp, err := client.POST("/api/meetings", map[string]interface{}{
		"title":       title,
		"description": description,
		"date":        date,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var meeting meetingResponse
	testutil.DecodeJSON(t, resp, &meeting)

	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM meetings WHERE id = $1`, meeting.ID)
	})
	return meeting
}

func meetingPath(id int64) string {
	return fmt.Sprintf("/api/meetings/%d", id)
}
