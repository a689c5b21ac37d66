package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCoursesFiltersUnpublished(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, studentToken := ts.createUser(t)
	_, adminToken := ts.createAdmin(t)

	published, _, _ := ts.createCourse(t, 1)
	draft, _, _ := ts.createCourse(t, 1)
	draft.IsPublished = false
	require.NoError(t, ts.store.UpdateCourse(context.Background(), draft))

	resp := ts.api.Get("/api/v1/courses", "Authorization: Bearer "+studentToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var list struct {
		Courses []CourseSummary `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Courses, 1)
	assert.Equal(t, published.ID, list.Courses[0].ID)

	// Admins see drafts too.
	resp = ts.api.Get("/api/v1/courses", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Len(t, list.Courses, 2)
}

func TestGetCourseDetail(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t)
	course, module, lessons := ts.createCourse(t, 3)

	resp := ts.api.Get("/api/v1/courses/"+course.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var detail CourseDetailResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Equal(t, course.ID, detail.ID)
	require.Len(t, detail.Modules, 1)
	assert.Equal(t, module.ID, detail.Modules[0].ID)
	require.Len(t, detail.Modules[0].Lessons, len(lessons))
	assert.Equal(t, 1, detail.Modules[0].Lessons[0].SortOrder)
}

func TestGetCourseHidesDraftFromStudents(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, studentToken := ts.createUser(t)
	_, adminToken := ts.createAdmin(t)

	draft, _, _ := ts.createCourse(t, 1)
	draft.IsPublished = false
	require.NoError(t, ts.store.UpdateCourse(context.Background(), draft))

	resp := ts.api.Get("/api/v1/courses/"+draft.ID, "Authorization: Bearer "+studentToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/courses/"+draft.ID, "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}
