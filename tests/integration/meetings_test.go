//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/alexvite/curriculum-vitae/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetings_CreateThenGet(t *testing.T) {
	client := newUserClient(t)

	created := createTestMeeting(t, client, "Standup", strPtr("daily sync"), "2024-01-15")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Standup", created.Title)
	require.NotNil(t, created.Description)
	assert.Equal(t, "daily sync", *created.Description)
	assert.Equal(t, "2024-01-15", created.Date)

	public := newTestClient(t)
	resp, err := public.GET(meetingPath(created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got meetingResponse
	testutil.DecodeJSON(t, resp, &got)
	assert.Equal(t, created, got)
}

func TestMeetings_ClientIDIgnored(t *testing.T) {
	client := newUserClient(t)

	resp, err := client.POST("/api/meetings", map[string]interface{}{
		"id":    424242,
		"title": "Planning",
		"date":  "2024-02-01",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created meetingResponse
	testutil.DecodeJSON(t, resp, &created)
	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM meetings WHERE id = $1`, created.ID)
	})
	assert.NotEqual(t, int64(424242), created.ID)
	assert.Nil(t, created.Description)
}

func TestMeetings_GetNeverCreated(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/meetings/999999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)
}

func TestMeetings_ListContainsCreated(t *testing.T) {
	client := newUserClient(t)

	ids := make(map[int64]bool)
	for _, date := range []string{"2031-03-01", "2031-01-01", "2031-02-01"} {
		ids[createTestMeeting(t, client, "List "+date, nil, date).ID] = true
	}

	resp, err := client.GET("/api/meetings")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []meetingResponse
	testutil.DecodeJSON(t, resp, &list)

	var found []string
	for _, m := range list {
		if ids[m.ID] {
			found = append(found, m.Date)
		}
	}
	assert.Equal(t, []string{"2031-01-01", "2031-02-01", "2031-03-01"}, found)
}

func TestMeetings_UpdateIsFullOverwriteAndIdempotent(t *testing.T) {
	client := newUserClient(t)
	created := createTestMeeting(t, client, "Standup", strPtr("daily sync"), "2024-01-15")

	payload := map[string]interface{}{
		"title":       "Retro",
		"description": nil,
		"date":        "2024-01-19",
	}

	var results [2]meetingResponse
	for i := range results {
		resp, err := client.PUT(meetingPath(created.ID), payload)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		testutil.DecodeJSON(t, resp, &results[i])
	}
	assert.Equal(t, results[0], results[1])

	resp, err := client.GET(meetingPath(created.ID))
	require.NoError(t, err)
	var got meetingResponse
	testutil.DecodeJSON(t, resp, &got)
	assert.Equal(t, "Retro", got.Title)
	assert.Nil(t, got.Description)
	assert.Equal(t, "2024-01-19", got.Date)
}

func TestMeetings_UpdateMissing(t *testing.T) {
	client := newUserClient(t)

	resp, err := client.PUT("/api/meetings/999999", map[string]interface{}{
		"title": "Ghost",
		"date":  "2024-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)
}

func TestMeetings_Validation(t *testing.T) {
	client := newUserClient(t)

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"date": "2024-01-15"}},
		{"blank title", map[string]interface{}{"title": "   ", "date": "2024-01-15"}},
		{"missing date", map[string]interface{}{"title": "Standup"}},
		{"malformed date", map[string]interface{}{"title": "Standup", "date": "2024-13-40"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.SetT(t)
			resp, err := client.WithoutValidation().POST("/api/meetings", tt.payload)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			_ = testutil.ReadBody(t, resp)
		})
	}
}

func TestMeetings_WriteAccess(t *testing.T) {
	user := newUserClient(t)
	created := createTestMeeting(t, user, "Standup", nil, "2024-01-15")

	anonymous := newTestClient(t)
	resp, err := anonymous.POST("/api/meetings", map[string]interface{}{"title": "x", "date": "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)

	resp, err = anonymous.PUT(meetingPath(created.ID), map[string]interface{}{"title": "x", "date": "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)

	resp, err = user.DELETE(meetingPath(created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)
}

func TestMeetings_DeleteThenGet(t *testing.T) {
	user := newUserClient(t)
	admin := newAdminClient(t)
	created := createTestMeeting(t, user, "Standup", nil, "2024-01-15")

	resp, err := admin.DELETE(meetingPath(created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)

	resp, err = admin.GET(meetingPath(created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)

	resp, err = admin.DELETE(meetingPath(created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = testutil.ReadBody(t, resp)
}

func TestMeetings_ScheduleFieldsAndCreator(t *testing.T) {
	client := newUserClient(t)

	resp, err := client.GET("/api/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, resp, &me)

	const day = "2031-07-04"
	for _, body := range []map[string]interface{}{
		{"title": "Review", "date": day, "time": "15:30"},
		{"title": "Kickoff", "date": day, "time": "09:00:00", "level": "Company", "participants": []string{"Alice", " ", "Bob"}},
		{"title": "Offsite", "date": day},
	} {
		resp, err := client.POST("/api/meetings", body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var created meetingResponse
		testutil.DecodeJSON(t, resp, &created)
		t.Cleanup(func() {
			_, _ = testDB.Exec(context.Background(), `DELETE FROM meetings WHERE id = $1`, created.ID)
		})
		require.NotNil(t, created.CreatorID)
		assert.Equal(t, me.ID, *created.CreatorID)
	}

	resp, err = newTestClient(t).GET("/api/meetings")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []meetingResponse
	testutil.DecodeJSON(t, resp, &list)

	var sameDay []meetingResponse
	for _, m := range list {
		if m.Date == day {
			sameDay = append(sameDay, m)
		}
	}
	require.Len(t, sameDay, 3)
	assert.Equal(t, "Offsite", sameDay[0].Title)
	assert.Nil(t, sameDay[0].Time)
	assert.Equal(t, "Kickoff", sameDay[1].Title)
	require.NotNil(t, sameDay[1].Time)
	assert.Equal(t, "09:00", *sameDay[1].Time)
	require.NotNil(t, sameDay[1].Level)
	assert.Equal(t, "Company", *sameDay[1].Level)
	assert.Equal(t, []string{"Alice", "Bob"}, sameDay[1].Participants)
	assert.Equal(t, "Review", sameDay[2].Title)
	assert.Empty(t, sameDay[2].Participants)
}
