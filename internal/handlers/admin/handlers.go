package admin

import (
	"net/http"
	"strconv"

	"github.com/s/elearner/internal/handlers"
	"github.com/s/elearner/internal/storage"
)

// Service holds the staff-only endpoints. Routes are wrapped with
// middleware.RequiredRole, so handlers do not re-check the role.
type Service struct {
	*handlers.Handler
}

func NewService(h *handlers.Handler) *Service {
	return &Service{Handler: h}
}

// ==========================================
// GET /api/admin/enrollments
// ?page=&limit=&search=&course_id=&status=pending|approved
// ==========================================
func (s *Service) GetEnrollmentsAPI(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := storage.EnrollmentFilter{Search: query.Get("search")}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	if courseID, err := strconv.ParseUint(query.Get("course_id"), 10, 64); err == nil {
		filter.CourseID = uint(courseID)
	}
	switch query.Get("status") {
	case "approved":
		approved := true
		filter.Approved = &approved
	case "pending":
		approved := false
		filter.Approved = &approved
	}

	page, err := storage.ListEnrollments(s.DB.WithContext(r.Context()), filter)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}

// ==========================================
// PUT /api/admin/enrollments/{id}/approve
// ==========================================
func (s *Service) ApproveEnrollmentAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	if err := s.Engine.Approve(r.Context(), id); err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"result": "success"})
}

// ==========================================
// GET /api/admin/users
// ?page=&limit=&search=&role_id=
// ==========================================
func (s *Service) GetUsersAPI(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := storage.UserFilter{Search: query.Get("search")}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	if roleID, err := strconv.ParseUint(query.Get("role_id"), 10, 64); err == nil {
		filter.RoleID = uint(roleID)
	}

	page, err := storage.ListUsers(s.DB.WithContext(r.Context()), filter)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}

// ==========================================
// GET /api/admin/reports
// ==========================================
func (s *Service) GetReportAPI(w http.ResponseWriter, r *http.Request) {
	report, err := storage.BuildReport(s.DB.WithContext(r.Context()))
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, report)
}
