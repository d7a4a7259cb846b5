package storage

import (
	"fmt"
	"math"
	"strings"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/models"
	"gorm.io/gorm"
)

// DefaultPageSize is the course list page size.
const DefaultPageSize = 10

// ---------------------------
// Categories
// ---------------------------

func CreateCategory(db *gorm.DB, category *models.CourseCategory) error {
	if strings.TrimSpace(category.Title) == "" {
		return apperr.InvalidArgument("category title is required")
	}
	if err := db.Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func GetCategory(db *gorm.DB, id uint) (*models.CourseCategory, error) {
	var category models.CourseCategory
	if err := db.First(&category, id).Error; err != nil {
		return nil, notFound(err, "category not found")
	}
	return &category, nil
}

func ListCategories(db *gorm.DB) ([]models.CourseCategory, error) {
	var categories []models.CourseCategory
	if err := db.Order("title asc, id asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ---------------------------
// Instructors
// ---------------------------

func CreateInstructor(db *gorm.DB, instructor *models.CourseInstructor) error {
	if strings.TrimSpace(instructor.Name) == "" {
		return apperr.InvalidArgument("instructor name is required")
	}
	if err := db.Create(instructor).Error; err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

func GetInstructor(db *gorm.DB, id uint) (*models.CourseInstructor, error) {
	var instructor models.CourseInstructor
	if err := db.First(&instructor, id).Error; err != nil {
		return nil, notFound(err, "instructor not found")
	}
	return &instructor, nil
}

func ListInstructors(db *gorm.DB) ([]models.CourseInstructor, error) {
	var instructors []models.CourseInstructor
	if err := db.Order("name asc, id asc").Find(&instructors).Error; err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// ---------------------------
// Courses
// ---------------------------

// courseColumns are the fields an admin may edit.
var courseColumns = []string{
	"title", "description", "category_id", "instructor_id",
	"difficulty", "duration_weeks", "rating", "thumbnail_url",
}

func checkCourse(db *gorm.DB, course *models.Course) error {
	if strings.TrimSpace(course.Title) == "" {
		return apperr.InvalidArgument("course title is required")
	}
	if !course.Difficulty.Valid() {
		return apperr.InvalidArgument(fmt.Sprintf("unknown difficulty %q", course.Difficulty))
	}
	if _, err := GetCategory(db, course.CategoryID); err != nil {
		return err
	}
	if _, err := GetInstructor(db, course.InstructorID); err != nil {
		return err
	}
	return nil
}

// CreateCourse checks the referenced category and instructor before insert.
func CreateCourse(db *gorm.DB, course *models.Course) error {
	if err := checkCourse(db, course); err != nil {
		return err
	}
	if err := db.Omit("Category", "Instructor", "Lessons").Create(course).Error; err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// UpdateCourse overwrites every editable field of an existing course.
func UpdateCourse(db *gorm.DB, course *models.Course) error {
	current, err := GetCourse(db, course.ID)
	if err != nil {
		return err
	}
	if err := checkCourse(db, course); err != nil {
		return err
	}
	if err := db.Model(current).Select(courseColumns).Updates(course).Error; err != nil {
		return fmt.Errorf("update course %d: %w", course.ID, err)
	}
	return nil
}

// DeleteCourse soft-deletes the course. Its enrollments and progress stay in
// the database but the course drops out of every lookup.
func DeleteCourse(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete course %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("course not found")
	}
	return nil
}

func GetCourse(db *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := db.Preload("Category").Preload("Instructor").First(&course, id).Error; err != nil {
		return nil, notFound(err, "course not found")
	}
	return &course, nil
}

// CourseFilter mirrors the course list query string (q, cat, dif, page).
type CourseFilter struct {
	Query      string
	CategoryID uint
	Difficulty models.Difficulty
	Page       int
	PageSize   int
}

type CoursePage struct {
	Courses []models.Course `json:"courses"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
}

func (f CourseFilter) scope(db *gorm.DB) *gorm.DB {
	if q := strings.TrimSpace(f.Query); q != "" {
		db = db.Where("LOWER(courses.title) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if f.CategoryID != 0 {
		db = db.Where("courses.category_id = ?", f.CategoryID)
	}
	if f.Difficulty != "" {
		db = db.Where("courses.difficulty = ?", f.Difficulty)
	}
	return db
}

func ListCourses(db *gorm.DB, filter CourseFilter) (*CoursePage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = DefaultPageSize
	}

	var total int64
	if err := db.Model(&models.Course{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}

	var courses []models.Course
	err := db.Scopes(filter.scope).
		Preload("Category").
		Preload("Instructor").
		Order("courses.created_at desc, courses.id desc").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	return &CoursePage{
		Courses: courses,
		Total:   total,
		Page:    filter.Page,
		Pages:   int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}

// SuggestCourses returns up to limit courses from the given categories,
// skipping the excluded course ids, in id order.
func SuggestCourses(db *gorm.DB, categoryIDs, excludeIDs []uint, limit int) ([]models.Course, error) {
	if len(categoryIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	q := db.Where("category_id IN ?", categoryIDs)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}

	var courses []models.Course
	if err := q.Preload("Category").Preload("Instructor").Order("id asc").Limit(limit).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("suggest courses: %w", err)
	}
	return courses, nil
}

// ---------------------------
// Lessons
// ---------------------------

var lessonColumns = []string{"title", "youtube_link", "description", "brief", "file_url", "position"}

func checkLesson(lesson *models.CourseLesson) error {
	if strings.TrimSpace(lesson.Title) == "" {
		return apperr.InvalidArgument("lesson title is required")
	}
	if len(lesson.Brief) > 300 {
		return apperr.InvalidArgument("lesson brief is longer than 300 characters")
	}
	return nil
}

// positionTaken reports whether another lesson of the course sits at position.
func positionTaken(tx *gorm.DB, courseID uint, position int, exceptID uint) (bool, error) {
	var taken int64
	err := tx.Model(&models.CourseLesson{}).
		Where("course_id = ? AND position = ? AND id <> ?", courseID, position, exceptID).
		Count(&taken).Error
	if err != nil {
		return false, fmt.Errorf("check lesson position: %w", err)
	}
	return taken > 0, nil
}

// CreateLesson appends the lesson to its course. A zero Position means
// "after the current last lesson".
func CreateLesson(db *gorm.DB, lesson *models.CourseLesson) error {
	if err := checkLesson(lesson); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Course{}).Where("id = ?", lesson.CourseID).Count(&exists).Error; err != nil {
			return fmt.Errorf("check course: %w", err)
		}
		if exists == 0 {
			return apperr.NotFound("course not found")
		}

		if lesson.Position <= 0 {
			var last int
			err := tx.Model(&models.CourseLesson{}).
				Where("course_id = ?", lesson.CourseID).
				Select("COALESCE(MAX(position), 0)").
				Scan(&last).Error
			if err != nil {
				return fmt.Errorf("last lesson position: %w", err)
			}
			lesson.Position = last + 1
		} else {
			taken, err := positionTaken(tx, lesson.CourseID, lesson.Position, 0)
			if err != nil {
				return err
			}
			if taken {
				return apperr.InvalidArgument(fmt.Sprintf("position %d is taken", lesson.Position))
			}
		}

		if err := tx.Create(lesson).Error; err != nil {
			return fmt.Errorf("create lesson: %w", err)
		}
		return nil
	})
}

// GetLesson loads a lesson only if it belongs to the course.
func GetLesson(db *gorm.DB, courseID, lessonID uint) (*models.CourseLesson, error) {
	var lesson models.CourseLesson
	if err := db.Where("id = ? AND course_id = ?", lessonID, courseID).First(&lesson).Error; err != nil {
		return nil, notFound(err, "lesson not found in course")
	}
	return &lesson, nil
}

// ListLessons returns the course lessons in sequence order.
func ListLessons(db *gorm.DB, courseID uint) ([]models.CourseLesson, error) {
	var lessons []models.CourseLesson
	if err := db.Where("course_id = ?", courseID).Order("position asc, id asc").Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

func CountLessons(db *gorm.DB, courseID uint) (int, error) {
	var n int64
	if err := db.Model(&models.CourseLesson{}).Where("course_id = ?", courseID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return int(n), nil
}

// UpdateLesson overwrites the editable fields of a lesson in its course. A
// zero Position keeps the current one. It reports whether the lesson moved.
func UpdateLesson(db *gorm.DB, lesson *models.CourseLesson) (bool, error) {
	if err := checkLesson(lesson); err != nil {
		return false, err
	}

	current, err := GetLesson(db, lesson.CourseID, lesson.ID)
	if err != nil {
		return false, err
	}
	if lesson.Position <= 0 {
		lesson.Position = current.Position
	}
	moved := lesson.Position != current.Position
	if moved {
		taken, err := positionTaken(db, lesson.CourseID, lesson.Position, lesson.ID)
		if err != nil {
			return false, err
		}
		if taken {
			return false, apperr.InvalidArgument(fmt.Sprintf("position %d is taken", lesson.Position))
		}
	}

	if err := db.Model(current).Select(lessonColumns).Updates(lesson).Error; err != nil {
		return false, fmt.Errorf("update lesson %d: %w", lesson.ID, err)
	}
	return moved, nil
}

// DeleteLesson removes the lesson together with its attendance rows and
// clears it as anyone's current lesson. Call it inside a transaction.
func DeleteLesson(tx *gorm.DB, courseID, lessonID uint) error {
	if _, err := GetLesson(tx, courseID, lessonID); err != nil {
		return err
	}
	if err := tx.Where("lesson_id = ?", lessonID).Delete(&models.AttendedLesson{}).Error; err != nil {
		return fmt.Errorf("delete attendance of lesson %d: %w", lessonID, err)
	}
	err := tx.Model(&models.CourseEnrollment{}).
		Where("current_lesson_id = ?", lessonID).
		Update("current_lesson_id", nil).Error
	if err != nil {
		return fmt.Errorf("clear current lesson %d: %w", lessonID, err)
	}
	if err := tx.Delete(&models.CourseLesson{}, lessonID).Error; err != nil {
		return fmt.Errorf("delete lesson %d: %w", lessonID, err)
	}
	return nil
}

// LessonOutline is the per-course summary the dashboard needs.
type LessonOutline struct {
	CourseID      uint
	Total         int
	FirstLessonID uint
}

// LessonOutlines loads lesson totals and the first lesson of every given
// course in one grouped query. Courses without lessons are absent.
func LessonOutlines(db *gorm.DB, courseIDs []uint) (map[uint]LessonOutline, error) {
	out := make(map[uint]LessonOutline, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	var rows []LessonOutline
	err := db.Raw(`SELECT l.course_id, COUNT(*) AS total,
		(SELECT f.id FROM course_lessons f WHERE f.course_id = l.course_id ORDER BY f.position ASC, f.id ASC LIMIT 1) AS first_lesson_id
		FROM course_lessons l
		WHERE l.course_id IN ?
		GROUP BY l.course_id`, courseIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lesson outlines: %w", err)
	}
	for _, r := range rows {
		out[r.CourseID] = r
	}
	return out, nil
}
