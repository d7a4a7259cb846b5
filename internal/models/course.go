package models

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty (уровень сложности курса)
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BE"
	DifficultyIntermediate Difficulty = "IN"
	DifficultyAdvanced     Difficulty = "AD"
)

// Difficulties lists the options in display order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

func (d Difficulty) Label() string {
	switch d {
	case DifficultyBeginner:
		return "Beginner"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyAdvanced:
		return "Advanced"
	}
	return string(d)
}

// CourseCategory (Категория)
type CourseCategory struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Title string `gorm:"size:255;not null" json:"title"`

	Courses []Course `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE;"`
}

// CourseInstructor (Преподаватель)
type CourseInstructor struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	PhotoURL string `json:"photo_url"`
	Bio      string `json:"bio"`

	Courses []Course `json:"-" gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE;"`
}

// Course (Курс)
type Course struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `json:"description"`
	CategoryID    uint       `gorm:"index;not null" json:"category_id"`
	Difficulty    Difficulty `gorm:"size:5;not null" json:"difficulty"`
	DurationWeeks uint       `json:"duration_weeks"`
	InstructorID  uint       `gorm:"index;not null" json:"instructor_id"`
	Rating        float64    `gorm:"default:0" json:"rating"`
	ThumbnailURL  string     `json:"thumbnail_url"`

	Category   CourseCategory   `json:"category" gorm:"foreignKey:CategoryID"`
	Instructor CourseInstructor `json:"instructor" gorm:"foreignKey:InstructorID"`
	Lessons    []CourseLesson   `json:"lessons,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
}

// CourseLesson (Урок). Position defines the lesson sequence within a course.
type CourseLesson struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`

	CourseID    uint    `gorm:"not null;uniqueIndex:idx_lesson_course_position" json:"course_id"`
	Position    int     `gorm:"not null;uniqueIndex:idx_lesson_course_position" json:"position"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	YoutubeLink string  `json:"youtube_link"`
	Description string  `json:"description"`
	Brief       string  `gorm:"size:300" json:"brief"`
	FileURL     *string `json:"file_url,omitempty"`
}
