package storage

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/s/elearner/internal/models"
	"gorm.io/gorm"
)

// SaveUser finds a user by Google ID; if found, it updates the profile,
// otherwise it creates the user with the default role.
func SaveUser(db *gorm.DB, userInfo models.User) (uint, error) {
	var existingUser models.User

	result := db.Where("google_id = ?", userInfo.GoogleID).First(&existingUser)

	if result.Error == nil {
		// Role is managed by an admin and is never touched here.
		updates := map[string]interface{}{
			"email":   userInfo.Email,
			"name":    userInfo.Name,
			"picture": userInfo.Picture,
		}

		if err := db.Model(&existingUser).Updates(updates).Error; err != nil {
			return 0, fmt.Errorf("update user %d: %w", existingUser.ID, err)
		}
		return existingUser.ID, nil

	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		userInfo.ID = 0
		userInfo.RoleID = models.RoleUser

		if err := db.Create(&userInfo).Error; err != nil {
			return 0, fmt.Errorf("create user: %w", err)
		}
		return userInfo.ID, nil

	} else {
		return 0, result.Error
	}
}

func GetUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

// GetUserWithRole is GetUser with the role preloaded.
func GetUserWithRole(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.Preload("Role").First(&user, id).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

// UserFilter is the staff user list query.
type UserFilter struct {
	Search string
	RoleID uint
	Page   int
	Limit  int
}

type UserPage struct {
	Data  []models.User `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

func (f UserFilter) scope(db *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if f.RoleID != 0 {
		db = db.Where("role_id = ?", f.RoleID)
	}
	return db
}

func ListUsers(db *gorm.DB, filter UserFilter) (*UserPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}

	var total int64
	if err := db.Model(&models.User{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	err := db.Scopes(filter.scope).
		Order("id asc").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserPage{
		Data:  users,
		Total: total,
		Page:  filter.Page,
		Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}
