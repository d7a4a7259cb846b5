package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity actions recorded in ActivityLog.
const (
	ActionLogin           = "login"
	ActionEnroll          = "enroll"
	ActionApprove         = "enrollment_approved"
	ActionLessonComplete  = "lesson_complete"
	ActionCourseComplete  = "course_complete"
	ActionCertificateView = "certificate_download"
)

// ActivityLog хранит историю действий пользователя
type ActivityLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	Action    string         `gorm:"size:64;index" json:"action"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}
