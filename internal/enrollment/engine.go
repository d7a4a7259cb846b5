package enrollment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/certificate"
	"github.com/s/elearner/internal/logger"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
	"gorm.io/gorm"
)

// Engine runs the enrollment, progression and completion rules on top of the
// catalog store. Every mutation is a single transaction.
type Engine struct {
	db    *gorm.DB
	log   *logger.Logger
	certs *certificate.Generator

	now              func() time.Time
	newCertificateID func() string
}

type Option func(*Engine)

// WithClock replaces time.Now for completion and attendance timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCertificateIDs replaces the certificate id source.
func WithCertificateIDs(next func() string) Option {
	return func(e *Engine) { e.newCertificateID = next }
}

func New(db *gorm.DB, log *logger.Logger, certs *certificate.Generator, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if certs == nil {
		certs = certificate.NewGenerator("")
	}
	e := &Engine{
		db:               db,
		log:              log,
		certs:            certs,
		now:              time.Now,
		newCertificateID: NewCertificateID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewCertificateID returns 32 lowercase hex characters.
func NewCertificateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

var errLogin = apperr.New(apperr.CodeUnauthenticated, "login required")

// Enroll creates a pending enrollment. Enrolling twice is a no-op.
func (e *Engine) Enroll(ctx context.Context, who auth.Identity, courseID uint) error {
	if !who.IsAuthenticated() {
		return errLogin
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := storage.GetCourse(tx, courseID); err != nil {
			return err
		}
		created, err := storage.CreateEnrollment(tx, who.UserID, courseID)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		e.log.Info("enrolled", "user_id", who.UserID, "course_id", courseID)
		return storage.LogActivity(tx, who.UserID, models.ActionEnroll, map[string]interface{}{
			"course_id": courseID,
		})
	})
}

// IsEnrolled never fails for anonymous callers or missing enrollments.
func (e *Engine) IsEnrolled(ctx context.Context, who auth.Identity, courseID uint) (bool, error) {
	enrollment, err := e.GetEnrollment(ctx, who, courseID)
	if err != nil {
		return false, err
	}
	return enrollment != nil, nil
}

// GetEnrollment returns nil without an error when there is nothing to find.
func (e *Engine) GetEnrollment(ctx context.Context, who auth.Identity, courseID uint) (*models.CourseEnrollment, error) {
	if !who.IsAuthenticated() {
		return nil, nil
	}
	enrollment, err := storage.FindEnrollment(e.db.WithContext(ctx), who.UserID, courseID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// access resolves the course, the caller's enrollment and the lesson. Every
// failure is NotFound so callers cannot tell the reasons apart.
func access(tx *gorm.DB, who auth.Identity, courseID, lessonID uint, lock bool) (*models.CourseEnrollment, *models.CourseLesson, error) {
	if _, err := storage.GetCourse(tx, courseID); err != nil {
		return nil, nil, err
	}
	if !who.IsAuthenticated() {
		return nil, nil, apperr.NotFound("anonymous caller")
	}

	find := storage.FindEnrollment
	if lock {
		find = storage.LockEnrollment
	}
	enrollment, err := find(tx, who.UserID, courseID)
	if err != nil {
		return nil, nil, err
	}

	lesson, err := storage.GetLesson(tx, courseID, lessonID)
	if err != nil {
		return nil, nil, err
	}
	return enrollment, lesson, nil
}

// GetLesson is the read path: enrollment is enough, approval is not checked.
func (e *Engine) GetLesson(ctx context.Context, who auth.Identity, courseID, lessonID uint) (*models.CourseLesson, error) {
	_, lesson, err := access(e.db.WithContext(ctx), who, courseID, lessonID, false)
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// Classroom is what a student sees while studying one lesson.
type Classroom struct {
	Lesson            models.CourseLesson   `json:"lesson"`
	Lessons           []models.CourseLesson `json:"lessons"`
	AttendedLessonIDs []uint                `json:"attended_lesson_ids"`
	HasNext           bool                  `json:"has_next"`
	Progress          float64               `json:"progress"`
}

func (e *Engine) Classroom(ctx context.Context, who auth.Identity, courseID, lessonID uint) (Classroom, error) {
	db := e.db.WithContext(ctx)
	enrollment, lesson, err := access(db, who, courseID, lessonID, false)
	if err != nil {
		return Classroom{}, err
	}

	lessons, err := storage.ListLessons(db, courseID)
	if err != nil {
		return Classroom{}, err
	}
	attended, err := storage.AttendedLessonIDs(db, enrollment.ID)
	if err != nil {
		return Classroom{}, err
	}

	status := newStatus(*enrollment, attended, lessons)
	return Classroom{
		Lesson:            *lesson,
		Lessons:           lessons,
		AttendedLessonIDs: attended,
		HasNext:           nextAfter(lessons, lesson.ID) != nil,
		Progress:          status.Progress(),
	}, nil
}

// CompleteLesson marks the lesson attended and returns the id of the lesson
// that follows it, or nil after the last one. Lessons must be completed in
// order: only attended lessons and the first unattended one are accepted.
// Finishing the last lesson stamps the completion date and certificate id
// exactly once.
func (e *Engine) CompleteLesson(ctx context.Context, who auth.Identity, courseID, lessonID uint) (*uint, error) {
	var next *uint

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, lesson, err := access(tx, who, courseID, lessonID, true)
		if err != nil {
			return err
		}

		lessons, err := storage.ListLessons(tx, courseID)
		if err != nil {
			return err
		}
		ids, err := storage.AttendedLessonIDs(tx, enrollment.ID)
		if err != nil {
			return err
		}
		attended := make(map[uint]bool, len(ids))
		for _, id := range ids {
			attended[id] = true
		}

		if !attended[lesson.ID] {
			if first := firstUnattended(lessons, attended); first == nil || first.ID != lesson.ID {
				return apperr.NotFound("lesson is locked")
			}
		}

		now := e.now()
		if err := storage.MarkAttended(tx, enrollment.ID, lesson.ID, now); err != nil {
			return err
		}
		attended[lesson.ID] = true

		current := firstUnattended(lessons, attended)
		if current == nil {
			current = &lessons[len(lessons)-1]
		}
		if err := storage.SetCurrentLesson(tx, enrollment.ID, &current.ID); err != nil {
			return err
		}
		if err := storage.LogActivity(tx, who.UserID, models.ActionLessonComplete, map[string]interface{}{
			"course_id": courseID,
			"lesson_id": lesson.ID,
		}); err != nil {
			return err
		}

		if n := nextAfter(lessons, lesson.ID); n != nil {
			id := n.ID
			next = &id
			return nil
		}

		if enrollment.CompletedDate != nil || len(attended) < len(lessons) {
			return nil
		}
		return e.complete(tx, *enrollment, now)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// complete stamps the completion date and a fresh certificate id unless
// another transaction got there first.
func (e *Engine) complete(tx *gorm.DB, enrollment models.CourseEnrollment, at time.Time) error {
	certificateID := e.newCertificateID()
	won, err := storage.MarkCompleted(tx, enrollment.ID, at, certificateID)
	if err != nil || !won {
		return err
	}
	e.log.Info("course completed", "user_id", enrollment.UserID, "course_id", enrollment.CourseID, "certificate_id", certificateID)
	return storage.LogActivity(tx, enrollment.UserID, models.ActionCourseComplete, map[string]interface{}{
		"course_id":      enrollment.CourseID,
		"certificate_id": certificateID,
	})
}

// Approve is the staff action that lets a pending enrollment through.
// Approval is one-way; approving twice changes nothing.
func (e *Engine) Approve(ctx context.Context, enrollmentID uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := storage.GetEnrollmentByID(tx, enrollmentID)
		if err != nil {
			return err
		}
		changed, err := storage.ApproveEnrollment(tx, enrollmentID)
		if err != nil || !changed {
			return err
		}
		e.log.Info("enrollment approved", "enrollment_id", enrollmentID, "user_id", enrollment.UserID)
		return storage.LogActivity(tx, enrollment.UserID, models.ActionApprove, map[string]interface{}{
			"course_id":     enrollment.CourseID,
			"enrollment_id": enrollmentID,
		})
	})
}

func firstUnattended(lessons []models.CourseLesson, attended map[uint]bool) *models.CourseLesson {
	for i := range lessons {
		if !attended[lessons[i].ID] {
			return &lessons[i]
		}
	}
	return nil
}

// nextAfter expects lessons sorted by position.
func nextAfter(lessons []models.CourseLesson, lessonID uint) *models.CourseLesson {
	for i := range lessons {
		if lessons[i].ID == lessonID && i+1 < len(lessons) {
			return &lessons[i+1]
		}
	}
	return nil
}
