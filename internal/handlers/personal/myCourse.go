package personal

import (
	"net/http"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/handlers"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

// recentActivity is how many log entries the profile shows.
const recentActivity = 20

type Service struct {
	*handlers.Handler
}

func NewService(h *handlers.Handler) *Service {
	return &Service{Handler: h}
}

// ==========================================
// GET /api/me/courses: pending / current / completed / suggested
// ==========================================
func (s *Service) MyCoursesAPI(w http.ResponseWriter, r *http.Request) {
	courses, err := s.Engine.GetUserCourses(r.Context(), s.Identity(r))
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, courses)
}

type profile struct {
	User     *models.User         `json:"user"`
	Role     string               `json:"role"`
	Activity []models.ActivityLog `json:"activity"`
}

// ==========================================
// GET /personal
// ==========================================
func (s *Service) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.GetAuthenticatedUserID(r)
	if !ok {
		s.WriteError(w, r, apperr.New(apperr.CodeUnauthenticated, "login required"))
		return
	}

	db := s.DB.WithContext(r.Context())
	user, err := storage.GetUserWithRole(db, userID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	activity, err := storage.ListActivity(db, userID, recentActivity)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, profile{
		User:     user,
		Role:     user.Role.Name,
		Activity: activity,
	})
}
