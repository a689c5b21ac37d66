package domain

import "time"

// NodeKind identifies which level of the content hierarchy something attaches to.
type NodeKind string

const (
	// NodeCourse attaches to a whole course.
	NodeCourse NodeKind = "course"
	// NodeModule attaches to a module within a course.
	NodeModule NodeKind = "module"
	// NodeLesson attaches to a single lesson.
	NodeLesson NodeKind = "lesson"
)

// NodeRef is a tagged reference to a course, module, or lesson.
// Content rules and tasks attach to exactly one node.
type NodeRef struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// Key returns the composite lookup key "kind:id" used by node-scoped indexes.
func (n NodeRef) Key() string {
	return string(n.Kind) + ":" + n.ID
}

// Course is the top of the content hierarchy.
type Course struct {
	Syncable
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	IsPublished bool   `json:"is_published"`
}

// CourseModule groups lessons within a course.
type CourseModule struct {
	Syncable
	CourseID  string `json:"course_id"`
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order"`
}

// Lesson is a single video lesson within a module.
type Lesson struct {
	Syncable
	ModuleID string `json:"module_id"`
	CourseID string `json:"course_id"` // Denormalized for single-lookup ancestry
	Title    string `json:"title"`
	Slug     string `json:"slug"`

	// SortOrder is unique within the module and drives sequential unlocking.
	SortOrder int `json:"sort_order"`

	// DurationSeconds is the video length, consumed by the completion verifier
	// when computing watch ratios.
	DurationSeconds int `json:"duration_seconds"`

	RequiresReflection        bool `json:"requires_reflection"`
	ReflectionRequireApproval bool `json:"reflection_requires_approval"`

	// ReleaseAt is an absolute drip instant shared by all users.
	ReleaseAt *time.Time `json:"release_at,omitempty"`
	// ReleaseDayOffset delays release relative to each user's enrollment start.
	// Ignored when ReleaseAt is set.
	ReleaseDayOffset *int `json:"release_day_offset,omitempty"`
}

// Node returns the lesson's tagged node reference.
func (l *Lesson) Node() NodeRef {
	return NodeRef{Kind: NodeLesson, ID: l.ID}
}

// ContentRule restricts who may access a content node.
// At most one rule exists per node; rules on ancestor nodes compose additively.
type ContentRule struct {
	Syncable
	Node NodeRef `json:"node"`

	// MinLevel requires the user's level to rank at least this high. Nil = no requirement.
	MinLevel *Level `json:"min_level,omitempty"`
	// RequiresBayah requires the user to have given bay'ah.
	RequiresBayah bool `json:"requires_bayah"`
	// Gender restricts the node to one gender. Nil = no restriction.
	Gender *Gender `json:"gender,omitempty"`
}

// IsUnrestricted reports whether the rule imposes no restriction at all.
func (r *ContentRule) IsUnrestricted() bool {
	return r.MinLevel == nil && !r.RequiresBayah && r.Gender == nil
}
