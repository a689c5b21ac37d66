package domain

import (
	"slices"
	"time"
)

// TaskStatus is the completion state of a user's task progress.
type TaskStatus string

const (
	// TaskInProgress means the task still needs check-ins.
	TaskInProgress TaskStatus = "in_progress"
	// TaskCompleted means the required days have all been checked in.
	TaskCompleted TaskStatus = "completed"
)

// Task is a multi-day practice assignment attached to a lesson or module.
// It completes after RequiredDays distinct daily check-ins.
type Task struct {
	Syncable
	Node  NodeRef `json:"node"`
	Title string  `json:"title"`

	RequiredDays int `json:"required_days"`

	// UnlockNextLesson marks this task as a progression gate: the next lesson
	// stays locked until the task completes.
	UnlockNextLesson bool `json:"unlock_next_lesson"`
}

// TaskProgress tracks one user's check-ins against a task.
type TaskProgress struct {
	Syncable
	UserID string     `json:"user_id"`
	TaskID string     `json:"task_id"`
	Status TaskStatus `json:"status"`

	// CheckinDays holds distinct check-in dates as YYYY-MM-DD strings.
	CheckinDays []string   `json:"checkin_days,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskProgressID generates the composite key "userID:taskID".
func TaskProgressID(userID, taskID string) string {
	return userID + ":" + taskID
}

// NewTaskProgress creates an in-progress record for a user+task.
func NewTaskProgress(userID, taskID string) *TaskProgress {
	p := &TaskProgress{
		UserID: userID,
		TaskID: taskID,
		Status: TaskInProgress,
	}
	p.ID = TaskProgressID(userID, taskID)
	p.InitTimestamps()
	return p
}

// IsCompleted returns true once the required days are all checked in.
func (p *TaskProgress) IsCompleted() bool {
	return p.Status == TaskCompleted
}

// CheckIn records a check-in for the given instant. Repeat check-ins on the
// same calendar day are ignored. Returns true if the check-in counted, and
// flips the status to completed once requiredDays distinct days are recorded.
func (p *TaskProgress) CheckIn(at time.Time, requiredDays int) bool {
	if p.IsCompleted() {
		return false
	}
	day := at.UTC().Format("2006-01-02")
	if slices.Contains(p.CheckinDays, day) {
		return false
	}
	p.CheckinDays = append(p.CheckinDays, day)
	if requiredDays > 0 && len(p.CheckinDays) >= requiredDays {
		completed := at
		p.Status = TaskCompleted
		p.CompletedAt = &completed
	}
	p.UpdatedAt = at
	return true
}
