package database

import (
	"fmt"

	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
	"gorm.io/gorm"
)

// SeedRoles makes sure every role id used by the application exists.
func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{ID: models.RoleUser, Name: "User"},
		{ID: models.RoleAdmin, Name: "Admin"},
		{ID: models.RoleManager, Name: "Manager"},
	}
	for _, r := range roles {
		if err := db.Omit("Users").FirstOrCreate(&models.Role{}, r).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return nil
}

// SeedDemo creates a small catalog when the database has no courses yet.
func SeedDemo(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Course{}).Count(&n).Error; err != nil {
		return fmt.Errorf("count courses: %w", err)
	}
	if n > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		category := models.CourseCategory{Title: "Programming Languages"}
		if err := storage.CreateCategory(tx, &category); err != nil {
			return err
		}
		instructor := models.CourseInstructor{Name: "Ada Lovelace", Bio: "Writes programs for engines that do not exist yet."}
		if err := storage.CreateInstructor(tx, &instructor); err != nil {
			return err
		}
		course := models.Course{
			Title:         "Go for Beginners",
			Description:   "Types, functions, packages and a first web service.",
			CategoryID:    category.ID,
			InstructorID:  instructor.ID,
			Difficulty:    models.DifficultyBeginner,
			DurationWeeks: 6,
		}
		if err := storage.CreateCourse(tx, &course); err != nil {
			return err
		}
		for _, title := range []string{"Getting started", "Types and values", "Packages"} {
			lesson := models.CourseLesson{
				CourseID:    course.ID,
				Title:       title,
				Brief:       title,
				Description: title,
				YoutubeLink: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			}
			if err := storage.CreateLesson(tx, &lesson); err != nil {
				return err
			}
		}
		return nil
	})
}
