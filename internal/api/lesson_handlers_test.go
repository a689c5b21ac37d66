package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/id"
)

func TestLessonAccessFirstLessonAllowed(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 2)

	resp := ts.api.Get("/api/v1/lessons/"+lessons[0].ID+"/access", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var verdict LessonAccessResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &verdict))
	assert.True(t, verdict.Allowed)
	assert.Empty(t, verdict.Reasons)
}

func TestLessonAccessSequentialDenial(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 2)

	resp := ts.api.Get("/api/v1/lessons/"+lessons[1].ID+"/access", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var verdict LessonAccessResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &verdict))
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reasons, "previous_lesson_incomplete")
}

func TestLessonAccessEligibilityDetail(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t) // no bay'ah
	course, _, lessons := ts.createCourse(t, 1)

	rule := &domain.ContentRule{
		Node:          domain.NodeRef{Kind: domain.NodeCourse, ID: course.ID},
		RequiresBayah: true,
	}
	rule.ID = id.MustGenerate("rule")
	require.NoError(t, ts.store.UpsertContentRule(context.Background(), rule))

	resp := ts.api.Get("/api/v1/lessons/"+lessons[0].ID+"/access", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var verdict LessonAccessResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &verdict))
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reasons, "requires_bayah")
	require.NotNil(t, verdict.Eligibility)
	assert.True(t, verdict.Eligibility.RequiresBayah)
}

func TestLessonAccessReleaseMessage(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	_, _, lessons := ts.createCourse(t, 1)

	releaseAt := time.Now().Add(48 * time.Hour)
	lessons[0].ReleaseAt = &releaseAt
	require.NoError(t, ts.store.UpdateLesson(context.Background(), lessons[0]))

	resp := ts.api.Get("/api/v1/lessons/"+lessons[0].ID+"/access", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var verdict LessonAccessResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &verdict))
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reasons, "not_released_yet")
	require.NotNil(t, verdict.ReleaseAt)
	assert.NotEmpty(t, verdict.Message)
}

func TestLessonAccessUnknownLesson(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)

	resp := ts.api.Get("/api/v1/lessons/les_missing/access", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLessonAccessRequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, _, lessons := ts.createCourse(t, 1)

	resp := ts.api.Get("/api/v1/lessons/" + lessons[0].ID + "/access")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
