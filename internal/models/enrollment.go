package models

import "time"

// CourseEnrollment (Заявка на курс). At most one per (user, course).
type CourseEnrollment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
	UpdatedAt  time.Time `json:"-"`

	UserID          uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID        uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	Approved        bool       `gorm:"not null;default:false" json:"approved"`
	CurrentLessonID *uint      `json:"current_lesson_id"`
	CompletedDate   *time.Time `json:"completed_date"`
	CertificateID   *string    `gorm:"size:32;uniqueIndex" json:"certificate_id"`

	User          User          `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Course        Course        `json:"course" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;"`
	CurrentLesson *CourseLesson `json:"-" gorm:"foreignKey:CurrentLessonID;constraint:OnDelete:SET NULL;"`
}

// AttendedLesson is one member of an enrollment's attended-lesson set.
type AttendedLesson struct {
	EnrollmentID uint      `gorm:"primaryKey;autoIncrement:false" json:"enrollment_id"`
	LessonID     uint      `gorm:"primaryKey;autoIncrement:false" json:"lesson_id"`
	AttendedAt   time.Time `json:"attended_at"`

	Enrollment CourseEnrollment `json:"-" gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE;"`
	Lesson     CourseLesson     `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE;"`
}
