package domain

import "time"

// ReviewStatus is the moderation state of a submitted reflection.
type ReviewStatus string

const (
	// ReviewPending means the reflection awaits review.
	ReviewPending ReviewStatus = "pending"
	// ReviewApproved means a reviewer accepted the reflection.
	ReviewApproved ReviewStatus = "approved"
	// ReviewRejected means a reviewer rejected the reflection.
	ReviewRejected ReviewStatus = "rejected"
)

// LessonReflection is a user's written reflection on a lesson.
// One per user+lesson; some lessons require a submitted (or approved)
// reflection before the next lesson unlocks.
type LessonReflection struct {
	Syncable
	UserID       string       `json:"user_id"`
	LessonID     string       `json:"lesson_id"`
	Body         string       `json:"body"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	ReviewStatus ReviewStatus `json:"review_status"`
}

// ReflectionID generates the composite key "userID:lessonID".
func ReflectionID(userID, lessonID string) string {
	return userID + ":" + lessonID
}

// NewLessonReflection creates a pending reflection submitted now.
func NewLessonReflection(userID, lessonID, body string, now time.Time) *LessonReflection {
	r := &LessonReflection{
		UserID:       userID,
		LessonID:     lessonID,
		Body:         body,
		SubmittedAt:  now,
		ReviewStatus: ReviewPending,
	}
	r.ID = ReflectionID(userID, lessonID)
	r.CreatedAt = now
	r.UpdatedAt = now
	return r
}

// IsApproved returns true if a reviewer accepted the reflection.
func (r *LessonReflection) IsApproved() bool {
	return r.ReviewStatus == ReviewApproved
}

// Satisfies reports whether this reflection satisfies a lesson's reflection
// requirement. When approval is required, only approved reflections count;
// otherwise any submission does.
func (r *LessonReflection) Satisfies(requireApproval bool) bool {
	if r == nil {
		return false
	}
	if requireApproval {
		return r.IsApproved()
	}
	return true
}
