package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

const enrollmentPrefix = "enrollment:"

// ErrEnrollmentNotFound is returned when a user is not enrolled in a course.
var ErrEnrollmentNotFound = ErrNotFound.WithMessage("enrollment not found")

// GetEnrollment retrieves a user's enrollment in a course.
func (s *Store) GetEnrollment(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(enrollmentPrefix + domain.EnrollmentID(userID, courseID))
	var enrollment domain.Enrollment
	if err := s.get(key, &enrollment); err != nil {
		if isBadgerNotFound(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("getting enrollment: %w", err)
	}
	return &enrollment, nil
}

// UpsertEnrollment creates or updates an enrollment.
func (s *Store) UpsertEnrollment(ctx context.Context, enrollment *domain.Enrollment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(enrollmentPrefix + domain.EnrollmentID(enrollment.UserID, enrollment.CourseID))
	if err := s.set(key, enrollment); err != nil {
		return fmt.Errorf("upserting enrollment: %w", err)
	}
	return nil
}

// GetEnrollmentsForUser returns all enrollments for a user.
// Relies on the composite key layout "userID:courseID".
func (s *Store) GetEnrollmentsForUser(ctx context.Context, userID string) ([]*domain.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(enrollmentPrefix + userID + ":")
	var results []*domain.Enrollment

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var enrollment domain.Enrollment
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &enrollment)
			})
			if err != nil {
				return err
			}
			e := enrollment
			results = append(results, &e)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return results, nil
}
