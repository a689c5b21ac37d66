package domain

import "time"

// Enrollment links a user to a course. One enrollment per user+course.
// StartedAt anchors relative drip release offsets; an enrollment created by an
// admin ahead of launch may not have started yet.
type Enrollment struct {
	Syncable
	UserID    string     `json:"user_id"`
	CourseID  string     `json:"course_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// EnrollmentID generates the composite key "userID:courseID".
func EnrollmentID(userID, courseID string) string {
	return userID + ":" + courseID
}

// NewEnrollment creates a started enrollment for a user in a course.
func NewEnrollment(id, userID, courseID string, startedAt time.Time) *Enrollment {
	e := &Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		StartedAt: &startedAt,
	}
	e.ID = id
	e.InitTimestamps()
	return e
}

// HasAnchor reports whether the enrollment can anchor a relative release offset.
func (e *Enrollment) HasAnchor() bool {
	return e != nil && e.StartedAt != nil
}
