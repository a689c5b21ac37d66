// Package store persists domain entities in a Badger key-value database.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Courses       *Entity[domain.Course]
	Modules       *Entity[domain.CourseModule]
	Lessons       *Entity[domain.Lesson]
	Tasks         *Entity[domain.Task]
	WatchSessions *Entity[domain.LessonWatchSession]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	// Initialize generic entities
	store.initCourses()
	store.initModules()
	store.initLessons()
	store.initTasks()
	store.initWatchSessions()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// delete removes a key from the database.
func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// isBadgerNotFound reports whether err is Badger's key-not-found error.
func isBadgerNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

// normalizeEmail lowercases and trims an email for index lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// initCourses initializes the Courses entity on the store.
// Slugs are unique across courses.
func (s *Store) initCourses() {
	s.Courses = NewEntity[domain.Course](s, "course:").
		WithIndex("slug", func(c *domain.Course) []string {
			return []string{c.Slug}
		})
}

// initModules initializes the Modules entity on the store.
// Indexed by course for listing a course's modules. Index keys include the
// module ID since a course has many modules.
func (s *Store) initModules() {
	s.Modules = NewEntity[domain.CourseModule](s, "module:").
		WithIndex("course", func(m *domain.CourseModule) []string {
			return []string{m.CourseID + ":" + m.ID}
		})
}

// initLessons initializes the Lessons entity on the store.
// Indexed by module (for ordering within a module) and by course (for
// materializing a whole course's journey in one scan).
func (s *Store) initLessons() {
	s.Lessons = NewEntity[domain.Lesson](s, "lesson:").
		WithIndex("module", func(l *domain.Lesson) []string {
			return []string{l.ModuleID + ":" + l.ID}
		}).
		WithIndex("course", func(l *domain.Lesson) []string {
			return []string{l.CourseID + ":" + l.ID}
		})
}

// initTasks initializes the Tasks entity on the store.
// Indexed by the content node the task attaches to.
func (s *Store) initTasks() {
	s.Tasks = NewEntity[domain.Task](s, "task:").
		WithIndex("node", func(t *domain.Task) []string {
			return []string{t.Node.Key() + ":" + t.ID}
		})
}

// initWatchSessions initializes the WatchSessions entity on the store.
// Indexed by user+lesson (for finding the active session) and user (for
// history). Index keys include the session ID since many sessions can exist
// for the same user+lesson.
func (s *Store) initWatchSessions() {
	s.WatchSessions = NewEntity[domain.LessonWatchSession](s, "watch:").
		WithIndex("user_lesson", func(ws *domain.LessonWatchSession) []string {
			return []string{ws.UserID + ":" + ws.LessonID + ":" + ws.ID}
		}).
		WithIndex("user", func(ws *domain.LessonWatchSession) []string {
			return []string{ws.UserID + ":" + ws.ID}
		})
}
