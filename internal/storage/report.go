package storage

import (
	"fmt"

	"github.com/s/elearner/internal/models"
	"gorm.io/gorm"
)

// CourseStats counts the enrollments of one course.
type CourseStats struct {
	CourseID    uint   `json:"course_id"`
	Title       string `json:"title"`
	Enrollments int64  `json:"enrollments"`
	Approved    int64  `json:"approved"`
	Completed   int64  `json:"completed"`
}

// Report is the admin overview of users, enrollments and completions.
type Report struct {
	Users       int64         `json:"users"`
	Enrollments int64         `json:"enrollments"`
	Approved    int64         `json:"approved"`
	Pending     int64         `json:"pending"`
	Completed   int64         `json:"completed"`
	Courses     []CourseStats `json:"courses"`
}

// BuildReport aggregates per course in one grouped query. Deleted courses are
// left out.
func BuildReport(db *gorm.DB) (*Report, error) {
	report := &Report{Courses: []CourseStats{}}

	if err := db.Model(&models.User{}).Count(&report.Users).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	err := db.Table("courses").
		Select(`courses.id AS course_id, courses.title,
			COUNT(course_enrollments.id) AS enrollments,
			COALESCE(SUM(CASE WHEN course_enrollments.approved THEN 1 ELSE 0 END), 0) AS approved,
			COUNT(course_enrollments.completed_date) AS completed`).
		Joins("LEFT JOIN course_enrollments ON course_enrollments.course_id = courses.id").
		Where("courses.deleted_at IS NULL").
		Group("courses.id, courses.title").
		Order("courses.id asc").
		Scan(&report.Courses).Error
	if err != nil {
		return nil, fmt.Errorf("course stats: %w", err)
	}

	for _, c := range report.Courses {
		report.Enrollments += c.Enrollments
		report.Approved += c.Approved
		report.Completed += c.Completed
	}
	report.Pending = report.Enrollments - report.Approved
	return report, nil
}
