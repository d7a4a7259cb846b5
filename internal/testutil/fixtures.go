package testutil

import (
	"fmt"
	"testing"

	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, tx *gorm.DB, email string) *models.User {
	tb.Helper()
	u := &models.User{
		GoogleID: "g-" + email,
		Email:    email,
		Name:     "Test User",
		RoleID:   models.RoleUser,
	}
	if err := tx.Omit("Role").Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, tx *gorm.DB, email string) *models.User {
	tb.Helper()
	u := SeedUser(tb, tx, email)
	if err := tx.Model(u).Update("role_id", models.RoleAdmin).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	u.RoleID = models.RoleAdmin
	return u
}

func SeedCategory(tb testing.TB, tx *gorm.DB, title string) *models.CourseCategory {
	tb.Helper()
	c := &models.CourseCategory{Title: title}
	if err := storage.CreateCategory(tx, c); err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedInstructor(tb testing.TB, tx *gorm.DB, name string) *models.CourseInstructor {
	tb.Helper()
	i := &models.CourseInstructor{Name: name, Bio: "Test Instructor Bio"}
	if err := storage.CreateInstructor(tx, i); err != nil {
		tb.Fatalf("seed instructor: %v", err)
	}
	return i
}

func SeedCourse(tb testing.TB, tx *gorm.DB, categoryID, instructorID uint, title string) *models.Course {
	tb.Helper()
	c := &models.Course{
		Title:         title,
		Description:   "This is a test course.",
		CategoryID:    categoryID,
		InstructorID:  instructorID,
		Difficulty:    models.DifficultyBeginner,
		DurationWeeks: 6,
	}
	if err := storage.CreateCourse(tx, c); err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// SeedLessons appends n lessons to the course and returns them in order.
func SeedLessons(tb testing.TB, tx *gorm.DB, courseID uint, n int) []models.CourseLesson {
	tb.Helper()
	lessons := make([]models.CourseLesson, 0, n)
	for i := 1; i <= n; i++ {
		l := models.CourseLesson{
			CourseID:    courseID,
			Title:       fmt.Sprintf("Lesson %d", i),
			Brief:       fmt.Sprintf("Brief for lesson %d.", i),
			Description: fmt.Sprintf("This is the detailed description for lesson %d.", i),
			YoutubeLink: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		}
		if err := storage.CreateLesson(tx, &l); err != nil {
			tb.Fatalf("seed lesson %d: %v", i, err)
		}
		lessons = append(lessons, l)
	}
	return lessons
}

// Catalog is the usual one-course fixture.
type Catalog struct {
	Category   *models.CourseCategory
	Instructor *models.CourseInstructor
	Course     *models.Course
	Lessons    []models.CourseLesson
}

func SeedCatalog(tb testing.TB, tx *gorm.DB, lessons int) Catalog {
	tb.Helper()
	cat := SeedCategory(tb, tx, "Programming Languages")
	inst := SeedInstructor(tb, tx, "Test Instructor")
	course := SeedCourse(tb, tx, cat.ID, inst.ID, "Test Course")
	return Catalog{
		Category:   cat,
		Instructor: inst,
		Course:     course,
		Lessons:    SeedLessons(tb, tx, course.ID, lessons),
	}
}
