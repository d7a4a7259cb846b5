package storage

import (
	"encoding/json"
	"fmt"

	"github.com/s/elearner/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LogActivity appends an entry to the user's activity history.
func LogActivity(db *gorm.DB, userID uint, action string, details map[string]interface{}) error {
	raw := []byte("{}")
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode activity details: %w", err)
		}
		raw = b
	}

	entry := models.ActivityLog{
		UserID:  userID,
		Action:  action,
		Details: datatypes.JSON(raw),
	}
	if err := db.Omit("User").Create(&entry).Error; err != nil {
		return fmt.Errorf("log activity %s: %w", action, err)
	}
	return nil
}

// ListActivity returns the newest entries first.
func ListActivity(db *gorm.DB, userID uint, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.ActivityLog
	err := db.Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
