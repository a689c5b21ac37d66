// Package main provides a tool to seed the database with development data.
//
// It creates a small catalog (one course, two modules, lessons with drip and
// reflection settings), content rules, a practice task, and a pair of test
// users with enrollments.
//
// Usage:
//
//	DB_PATH=~/tazkiyah/db go run ./cmd/seed
//	DB_PATH=~/tazkiyah/db go run ./cmd/seed --wipe-users=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tazkiyahapp/tazkiyah-server/internal/auth"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/id"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
	"github.com/tazkiyahapp/tazkiyah-server/internal/util"
)

var createUsers = flag.Bool("create-users", true, "Create test users with enrollments")

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/tazkiyah/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now()

	course := seedCourse(ctx, s, now)

	if *createUsers {
		seedUsers(ctx, s, course, now)
	}

	fmt.Println("\nSeed complete.")
}

// seedCourse creates a course with two modules: an open foundations module
// and a gated advanced module restricted to intermediate students with bay'ah.
func seedCourse(ctx context.Context, s *store.Store, now time.Time) *domain.Course {
	course := &domain.Course{
		Title:       "Purification of the Heart",
		Slug:        util.NormalizeSlug("Purification of the Heart"),
		Description: "A structured journey through the diseases of the heart and their cures.",
		IsPublished: true,
	}
	course.ID = id.MustGenerate("crs")
	course.CreatedAt = now
	course.UpdatedAt = now
	must(s.CreateCourse(ctx, course))
	fmt.Printf("Created course: %s\n", course.Title)

	foundations := seedModule(ctx, s, course.ID, "Foundations", 1, now)
	advanced := seedModule(ctx, s, course.ID, "Advanced Practices", 2, now)

	// Foundations: three lessons, the second requires a reflection, the third
	// drips three days after enrollment.
	offset := 3
	lessons := []*domain.Lesson{
		newLesson(course.ID, foundations.ID, "Sincerity of Intention", 1, 900),
		newLesson(course.ID, foundations.ID, "Guarding the Tongue", 2, 1200),
		newLesson(course.ID, foundations.ID, "Consistency in Practice", 3, 780),
	}
	lessons[1].RequiresReflection = true
	lessons[2].ReleaseDayOffset = &offset

	// Advanced: two lessons, the first needs an approved reflection before
	// the next unlocks.
	lessons = append(lessons,
		newLesson(course.ID, advanced.ID, "The Night Vigil", 1, 1500),
		newLesson(course.ID, advanced.ID, "Sustaining Remembrance", 2, 1100),
	)
	lessons[3].RequiresReflection = true
	lessons[3].ReflectionRequireApproval = true

	for _, lesson := range lessons {
		lesson.CreatedAt = now
		lesson.UpdatedAt = now
		must(s.CreateLesson(ctx, lesson))
	}
	fmt.Printf("Created %d lessons\n", len(lessons))

	// Gate the advanced module.
	minLevel := domain.LevelIntermediate
	rule := &domain.ContentRule{
		Node:          domain.NodeRef{Kind: domain.NodeModule, ID: advanced.ID},
		MinLevel:      &minLevel,
		RequiresBayah: true,
	}
	rule.ID = id.MustGenerate("rule")
	rule.CreatedAt = now
	rule.UpdatedAt = now
	must(s.UpsertContentRule(ctx, rule))
	fmt.Println("Created content rule for advanced module")

	// A seven-day practice task that gates progression past lesson two.
	task := &domain.Task{
		Node:             domain.NodeRef{Kind: domain.NodeLesson, ID: lessons[1].ID},
		Title:            "Seven days of guarded speech",
		RequiredDays:     7,
		UnlockNextLesson: true,
	}
	task.ID = id.MustGenerate("task")
	task.CreatedAt = now
	task.UpdatedAt = now
	must(s.CreateTask(ctx, task))
	fmt.Printf("Created task: %s\n", task.Title)

	return course
}

func seedModule(ctx context.Context, s *store.Store, courseID, title string, sortOrder int, now time.Time) *domain.CourseModule {
	module := &domain.CourseModule{
		CourseID:  courseID,
		Title:     title,
		SortOrder: sortOrder,
	}
	module.ID = id.MustGenerate("mod")
	module.CreatedAt = now
	module.UpdatedAt = now
	must(s.CreateModule(ctx, module))
	fmt.Printf("Created module: %s\n", title)
	return module
}

func newLesson(courseID, moduleID, title string, sortOrder, durationSeconds int) *domain.Lesson {
	lesson := &domain.Lesson{
		ModuleID:        moduleID,
		CourseID:        courseID,
		Title:           title,
		Slug:            util.NormalizeSlug(title),
		SortOrder:       sortOrder,
		DurationSeconds: durationSeconds,
	}
	lesson.ID = id.MustGenerate("les")
	return lesson
}

// seedUsers creates an admin and a student, both enrolled in the course.
func seedUsers(ctx context.Context, s *store.Store, course *domain.Course, now time.Time) {
	users := []struct {
		email    string
		name     string
		role     domain.Role
		level    domain.Level
		hasBayah bool
	}{
		{"admin@tazkiyah.test", "Seed Admin", domain.RoleAdmin, domain.LevelExpert, true},
		{"student@tazkiyah.test", "Seed Student", domain.RoleStudent, domain.LevelBeginner, false},
	}

	for _, u := range users {
		if _, err := s.GetUserByEmail(ctx, u.email); err == nil {
			fmt.Printf("User %s already exists, skipping\n", u.email)
			continue
		}

		hash, err := auth.HashPassword("SeedPassword123!")
		must(err)

		user := &domain.User{
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
			DisplayName:  u.name,
			Level:        u.level,
			HasBayah:     u.hasBayah,
		}
		user.ID = id.MustGenerate("usr")
		user.CreatedAt = now
		user.UpdatedAt = now
		must(s.CreateUser(ctx, user))

		enrollment := domain.NewEnrollment(id.MustGenerate("enr"), user.ID, course.ID, now)
		must(s.UpsertEnrollment(ctx, enrollment))

		fmt.Printf("Created user %s (%s) with enrollment\n", u.email, u.role)
	}
}

func must(err error) {
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
}
