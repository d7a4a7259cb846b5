package enrollment

import (
	"context"

	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
	"gorm.io/gorm"
)

// UpdateLesson saves staff edits to a lesson. Moving it to another position
// re-derives the resume point of every enrollment in the course.
func (e *Engine) UpdateLesson(ctx context.Context, lesson *models.CourseLesson) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := storage.GetCourse(tx, lesson.CourseID); err != nil {
			return err
		}
		moved, err := storage.UpdateLesson(tx, lesson)
		if err != nil || !moved {
			return err
		}
		e.log.Info("lesson moved", "course_id", lesson.CourseID, "lesson_id", lesson.ID, "position", lesson.Position)
		return e.resync(tx, lesson.CourseID)
	})
}

// DeleteLesson removes a lesson and its attendance. Enrollments keep their
// completion stamp; the rest resume at their first unattended lesson.
func (e *Engine) DeleteLesson(ctx context.Context, courseID, lessonID uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := storage.GetCourse(tx, courseID); err != nil {
			return err
		}
		if err := storage.DeleteLesson(tx, courseID, lessonID); err != nil {
			return err
		}
		e.log.Info("lesson deleted", "course_id", courseID, "lesson_id", lessonID)
		return e.resync(tx, courseID)
	})
}

// resync runs after the lesson list of a course changed. Current lesson is
// the first unattended one, or the last lesson once everything is attended,
// or nil when nothing is attended. Enrollments that now have every lesson
// attended get their completion stamped.
func (e *Engine) resync(tx *gorm.DB, courseID uint) error {
	lessons, err := storage.ListLessons(tx, courseID)
	if err != nil {
		return err
	}
	enrollments, err := storage.ListCourseEnrollments(tx, courseID)
	if err != nil || len(enrollments) == 0 {
		return err
	}

	ids := make([]uint, len(enrollments))
	for i, en := range enrollments {
		ids[i] = en.ID
	}
	attendedBy, err := storage.AttendedLessonIDsByEnrollment(tx, ids)
	if err != nil {
		return err
	}

	now := e.now()
	for _, en := range enrollments {
		attended := make(map[uint]bool, len(attendedBy[en.ID]))
		for _, id := range attendedBy[en.ID] {
			attended[id] = true
		}

		var current *uint
		if len(attended) > 0 {
			c := firstUnattended(lessons, attended)
			if c == nil {
				c = &lessons[len(lessons)-1]
			}
			id := c.ID
			current = &id
		}
		if !sameLesson(en.CurrentLessonID, current) {
			if err := storage.SetCurrentLesson(tx, en.ID, current); err != nil {
				return err
			}
		}

		if en.CompletedDate == nil && len(attended) > 0 && len(attended) == len(lessons) {
			if err := e.complete(tx, en, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func sameLesson(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
