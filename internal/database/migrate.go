package database

import (
	"github.com/s/elearner/internal/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.CourseCategory{},
		&models.CourseInstructor{},
		&models.Course{},
		&models.CourseLesson{},
		&models.CourseEnrollment{},
		&models.AttendedLesson{},
		&models.ActivityLog{},
	)
}
