package enrollment

import (
	"context"
	"encoding/json"
	"math"

	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

// Status is a point-in-time view of one enrollment. Progress and completion
// are computed from it on demand, never stored.
type Status struct {
	Enrollment        models.CourseEnrollment
	AttendedLessonIDs []uint
	TotalLessons      int
	FirstLessonID     *uint
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Enrollment             models.CourseEnrollment `json:"enrollment"`
		AttendedLessonIDs      []uint                  `json:"attended_lesson_ids"`
		TotalLessons           int                     `json:"total_lessons"`
		Progress               float64                 `json:"progress"`
		IsCompleted            bool                    `json:"is_completed"`
		CanDownloadCertificate bool                    `json:"can_download_certificate"`
		NextLessonID           *uint                   `json:"next_lesson_id"`
	}{
		Enrollment:             s.Enrollment,
		AttendedLessonIDs:      s.AttendedLessonIDs,
		TotalLessons:           s.TotalLessons,
		Progress:               s.Progress(),
		IsCompleted:            s.IsCompleted(),
		CanDownloadCertificate: s.CanDownloadCertificate(),
		NextLessonID:           s.NextLessonID(),
	})
}

func newStatus(enrollment models.CourseEnrollment, attended []uint, lessons []models.CourseLesson) Status {
	var first *uint
	if len(lessons) > 0 {
		id := lessons[0].ID
		first = &id
	}
	return buildStatus(enrollment, attended, len(lessons), first)
}

func buildStatus(enrollment models.CourseEnrollment, attended []uint, total int, first *uint) Status {
	if attended == nil {
		attended = []uint{}
	}
	return Status{
		Enrollment:        enrollment,
		AttendedLessonIDs: attended,
		TotalLessons:      total,
		FirstLessonID:     first,
	}
}

// Progress is the attended share in percent, rounded to two decimals.
func (s Status) Progress() float64 {
	if s.TotalLessons == 0 {
		return 0
	}
	ratio := float64(len(s.AttendedLessonIDs)) / float64(s.TotalLessons) * 100
	return math.Round(ratio*100) / 100
}

func (s Status) IsCompleted() bool {
	return len(s.AttendedLessonIDs) == s.TotalLessons
}

func (s Status) CanDownloadCertificate() bool {
	return s.Enrollment.Approved && s.IsCompleted() && s.Enrollment.CompletedDate != nil
}

// NextLessonID is where a student resumes: the current lesson, or the first
// lesson before anything was attended.
func (s Status) NextLessonID() *uint {
	if s.Enrollment.CurrentLessonID != nil {
		return s.Enrollment.CurrentLessonID
	}
	return s.FirstLessonID
}

// Status loads the attendance and lesson count for the enrollment.
func (e *Engine) Status(ctx context.Context, enrollment models.CourseEnrollment) (Status, error) {
	db := e.db.WithContext(ctx)
	lessons, err := storage.ListLessons(db, enrollment.CourseID)
	if err != nil {
		return Status{}, err
	}
	attended, err := storage.AttendedLessonIDs(db, enrollment.ID)
	if err != nil {
		return Status{}, err
	}
	return newStatus(enrollment, attended, lessons), nil
}
