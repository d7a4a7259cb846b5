package storage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func FindEnrollment(db *gorm.DB, userID, courseID uint) (*models.CourseEnrollment, error) {
	var enrollment models.CourseEnrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		return nil, notFound(err, "enrollment not found")
	}
	return &enrollment, nil
}

// LockEnrollment loads the enrollment with a row lock held until the
// surrounding transaction ends.
func LockEnrollment(tx *gorm.DB, userID, courseID uint) (*models.CourseEnrollment, error) {
	var enrollment models.CourseEnrollment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, notFound(err, "enrollment not found")
	}
	return &enrollment, nil
}

func GetEnrollmentByID(db *gorm.DB, id uint) (*models.CourseEnrollment, error) {
	var enrollment models.CourseEnrollment
	if err := db.Preload("User").Preload("Course").First(&enrollment, id).Error; err != nil {
		return nil, notFound(err, "enrollment not found")
	}
	return &enrollment, nil
}

// CreateEnrollment inserts a pending enrollment unless one already exists for
// the pair. It reports whether a row was inserted.
func CreateEnrollment(db *gorm.DB, userID, courseID uint) (bool, error) {
	enrollment := models.CourseEnrollment{
		UserID:   userID,
		CourseID: courseID,
		Approved: false,
	}
	result := db.Omit("User", "Course", "CurrentLesson").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment)
	if result.Error != nil {
		return false, fmt.Errorf("create enrollment: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListUserEnrollments returns every enrollment of the user with its course.
// Enrollments in deleted courses are skipped.
func ListUserEnrollments(db *gorm.DB, userID uint) ([]models.CourseEnrollment, error) {
	var enrollments []models.CourseEnrollment
	err := db.Preload("Course.Category").
		Preload("Course.Instructor").
		Where("user_id = ?", userID).
		Where("course_id IN (?)", db.Model(&models.Course{}).Select("id")).
		Order("id asc").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return enrollments, nil
}

// ListCourseEnrollments returns every enrollment of the course in id order.
func ListCourseEnrollments(db *gorm.DB, courseID uint) ([]models.CourseEnrollment, error) {
	var enrollments []models.CourseEnrollment
	if err := db.Where("course_id = ?", courseID).Order("id asc").Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// EnrollmentFilter is the staff enrollment list query.
type EnrollmentFilter struct {
	CourseID uint
	Approved *bool
	Search   string
	Page     int
	Limit    int
}

type EnrollmentPage struct {
	Data  []models.CourseEnrollment `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Pages int                       `json:"pages"`
}

func (f EnrollmentFilter) scope(db *gorm.DB) *gorm.DB {
	if f.CourseID != 0 {
		db = db.Where("course_enrollments.course_id = ?", f.CourseID)
	}
	if f.Approved != nil {
		db = db.Where("course_enrollments.approved = ?", *f.Approved)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Joins("JOIN users ON users.id = course_enrollments.user_id").
			Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}
	return db
}

func ListEnrollments(db *gorm.DB, filter EnrollmentFilter) (*EnrollmentPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}

	var total int64
	if err := db.Model(&models.CourseEnrollment{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}

	var enrollments []models.CourseEnrollment
	err := db.Model(&models.CourseEnrollment{}).
		Scopes(filter.scope).
		Preload("User").
		Preload("Course").
		Order("course_enrollments.enrolled_at desc, course_enrollments.id desc").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	return &EnrollmentPage{
		Data:  enrollments,
		Total: total,
		Page:  filter.Page,
		Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// ApproveEnrollment flips approved to true. It reports whether the row
// changed; approving an approved enrollment changes nothing.
func ApproveEnrollment(db *gorm.DB, id uint) (bool, error) {
	result := db.Model(&models.CourseEnrollment{}).
		Where("id = ? AND approved = ?", id, false).
		Update("approved", true)
	if result.Error != nil {
		return false, fmt.Errorf("approve enrollment %d: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var n int64
	if err := db.Model(&models.CourseEnrollment{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check enrollment %d: %w", id, err)
	}
	if n == 0 {
		return false, apperr.NotFound("enrollment not found")
	}
	return false, nil
}

// MarkAttended adds the lesson to the attended set; repeats are ignored.
func MarkAttended(tx *gorm.DB, enrollmentID, lessonID uint, at time.Time) error {
	row := models.AttendedLesson{EnrollmentID: enrollmentID, LessonID: lessonID, AttendedAt: at}
	err := tx.Omit("Enrollment", "Lesson").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("mark lesson %d attended: %w", lessonID, err)
	}
	return nil
}

// AttendedLessonIDs returns the attended set in lesson id order.
func AttendedLessonIDs(db *gorm.DB, enrollmentID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.AttendedLesson{}).
		Where("enrollment_id = ?", enrollmentID).
		Order("lesson_id asc").
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("attended lessons: %w", err)
	}
	return ids, nil
}

// AttendedLessonIDsByEnrollment loads the attended sets of many enrollments
// in one query, each in lesson id order.
func AttendedLessonIDsByEnrollment(db *gorm.DB, enrollmentIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return out, nil
	}

	var rows []models.AttendedLesson
	err := db.Select("enrollment_id", "lesson_id").
		Where("enrollment_id IN ?", enrollmentIDs).
		Order("enrollment_id asc, lesson_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("attended lessons: %w", err)
	}
	for _, r := range rows {
		out[r.EnrollmentID] = append(out[r.EnrollmentID], r.LessonID)
	}
	return out, nil
}

func SetCurrentLesson(tx *gorm.DB, enrollmentID uint, lessonID *uint) error {
	err := tx.Model(&models.CourseEnrollment{}).
		Where("id = ?", enrollmentID).
		Update("current_lesson_id", lessonID).Error
	if err != nil {
		return fmt.Errorf("set current lesson: %w", err)
	}
	return nil
}

// MarkCompleted stamps completion and the certificate id only while
// completed_date is still empty. It reports whether this call won.
func MarkCompleted(tx *gorm.DB, enrollmentID uint, at time.Time, certificateID string) (bool, error) {
	result := tx.Model(&models.CourseEnrollment{}).
		Where("id = ? AND completed_date IS NULL", enrollmentID).
		Updates(map[string]interface{}{
			"completed_date": at,
			"certificate_id": certificateID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("mark enrollment %d completed: %w", enrollmentID, result.Error)
	}
	return result.RowsAffected == 1, nil
}
