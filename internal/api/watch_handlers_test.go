package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSessionLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 1)
	lessonPath := "/api/v1/lessons/" + lessons[0].ID

	resp := ts.api.Post(lessonPath+"/watch/start", "Authorization: Bearer "+token, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var session WatchSessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	require.NotEmpty(t, session.SessionID)
	assert.Nil(t, session.EndedAt)

	// Starting again inside the reuse window returns the same session.
	resp = ts.api.Post(lessonPath+"/watch/start", "Authorization: Bearer "+token, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	var again WatchSessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &again))
	assert.Equal(t, session.SessionID, again.SessionID)

	resp = ts.api.Post(lessonPath+"/watch/heartbeat", "Authorization: Bearer "+token, map[string]any{
		"session_id":       session.SessionID,
		"position_seconds": 10.0,
		"playback_rate":    1.0,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var hb HeartbeatResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &hb))
	assert.False(t, hb.Ignored)
	assert.Positive(t, hb.WatchedSeconds)

	resp = ts.api.Post(lessonPath+"/watch/end", "Authorization: Bearer "+token, map[string]any{
		"session_id": session.SessionID,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	// Heartbeats after the end are acknowledged but ignored.
	resp = ts.api.Post(lessonPath+"/watch/heartbeat", "Authorization: Bearer "+token, map[string]any{
		"session_id":       session.SessionID,
		"position_seconds": 20.0,
		"playback_rate":    1.0,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &hb))
	assert.True(t, hb.Ignored)
}

func TestWatchStartDeniedWhenLocked(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 2)

	resp := ts.api.Post("/api/v1/lessons/"+lessons[1].ID+"/watch/start",
		"Authorization: Bearer "+token, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())
}

func TestWatchHeartbeatUnknownSession(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 1)

	resp := ts.api.Post("/api/v1/lessons/"+lessons[0].ID+"/watch/heartbeat",
		"Authorization: Bearer "+token, map[string]any{
			"session_id":       "ws_missing",
			"position_seconds": 5.0,
			"playback_rate":    1.0,
		})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestWatchHeartbeatRateLimited(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 1)
	lessonPath := "/api/v1/lessons/" + lessons[0].ID

	resp := ts.api.Post(lessonPath+"/watch/start", "Authorization: Bearer "+token, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	var session WatchSessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))

	// Burst through the per-session budget. The limiter allows a burst of 5;
	// at least one of the rapid follow-ups must be throttled.
	limited := false
	for i := 0; i < 10; i++ {
		resp = ts.api.Post(lessonPath+"/watch/heartbeat", "Authorization: Bearer "+token, map[string]any{
			"session_id":       session.SessionID,
			"position_seconds": float64(i),
			"playback_rate":    1.0,
		})
		if resp.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusOK, resp.Code)
	}
	assert.True(t, limited, "expected a rapid heartbeat burst to hit the rate limit")
}
