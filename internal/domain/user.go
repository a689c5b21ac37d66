package domain

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleStudent grants standard learner access.
	RoleStudent Role = "student"
)

// Gender is an optional user attribute consulted by content rules.
type Gender string

const (
	// GenderMale marks a male user or male-only content.
	GenderMale Gender = "male"
	// GenderFemale marks a female user or female-only content.
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the two recognized genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Level represents a user's study level. Content rules may require a minimum level.
type Level string

const (
	// LevelBeginner is the default level for new users.
	LevelBeginner Level = "beginner"
	// LevelIntermediate is the middle study level.
	LevelIntermediate Level = "intermediate"
	// LevelExpert is the highest study level.
	LevelExpert Level = "expert"
)

// levelRanks orders levels for minimum-level comparisons.
var levelRanks = map[Level]int{
	LevelBeginner:     1,
	LevelIntermediate: 2,
	LevelExpert:       3,
}

// Rank returns the numeric rank of the level.
// Unknown or empty levels rank as beginner.
func (l Level) Rank() int {
	if r, ok := levelRanks[l]; ok {
		return r
	}
	return levelRanks[LevelBeginner]
}

// AtLeast reports whether l satisfies a required minimum level.
func (l Level) AtLeast(required Level) bool {
	return l.Rank() >= required.Rank()
}

// User represents a learner account.
// Gender, Level and HasBayah are the attributes content rules gate on;
// they are written by profile/admin flows and read-only to the gating core.
type User struct {
	Syncable
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Role         Role   `json:"role"`
	DisplayName  string `json:"display_name"`

	Gender   Gender `json:"gender,omitempty"` // Empty = undisclosed
	Level    Level  `json:"level"`
	HasBayah bool   `json:"has_bayah"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EffectiveLevel returns the user's level, defaulting to beginner when unset.
func (u *User) EffectiveLevel() Level {
	if u.Level == "" {
		return LevelBeginner
	}
	return u.Level
}
