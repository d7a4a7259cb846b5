package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/s/elearner/internal/handlers"
	"github.com/s/elearner/internal/handlers/admin"
	"github.com/s/elearner/internal/handlers/personal"
	"github.com/s/elearner/internal/middleware"
	"github.com/s/elearner/internal/models"
)

// NewRouter registers every route. Google login routes are only mounted when
// h.Config is set.
func NewRouter(h *handlers.Handler) http.Handler {
	adminService := admin.NewService(h)
	personalService := personal.NewService(h)

	authRequired := middleware.RequireAuth(h)
	adminOnly := middleware.RequiredRole(h, models.RoleAdmin)

	r := mux.NewRouter()

	// --- Вход ---
	if h.Config != nil {
		r.HandleFunc("/auth/google/login", h.HandleGoogleLogin).Methods("GET")
		r.HandleFunc("/auth/google/callback", h.HandleGoogleCallback).Methods("GET")
	}
	r.HandleFunc("/logout", h.HandleLogout).Methods("GET", "POST")

	// --- Каталог (публичный) ---
	r.HandleFunc("/api/courses", h.ListCourses).Methods("GET")
	r.HandleFunc("/api/courses/{id}", h.GetCourse).Methods("GET")
	r.HandleFunc("/api/categories", h.ListCategories).Methods("GET")

	// --- Студент ---
	r.HandleFunc("/api/courses/{id}/enroll", authRequired(h.Enroll)).Methods("POST")
	// Anonymous callers get the same 404 as a missing enrollment here.
	r.HandleFunc("/api/courses/{id}/lessons/{lesson}", h.Lesson).Methods("GET")
	r.HandleFunc("/api/courses/{id}/lessons/{lesson}/complete", h.CompleteLesson).Methods("POST")
	r.HandleFunc("/api/courses/{id}/certificate", h.CertificateStatus).Methods("GET")
	r.HandleFunc("/api/courses/{id}/certificate.pdf", h.CertificatePDF).Methods("GET")
	r.HandleFunc("/api/courses/{id}/certificate.png", h.CertificatePNG).Methods("GET")

	// --- Личный кабинет ---
	r.HandleFunc("/api/me/courses", authRequired(personalService.MyCoursesAPI)).Methods("GET")
	r.HandleFunc("/personal", authRequired(personalService.HandleProfile)).Methods("GET")

	// --- Админ API ---
	r.HandleFunc("/api/admin/categories", adminOnly(adminService.CreateCategoryAPI)).Methods("POST")
	r.HandleFunc("/api/admin/instructors", adminOnly(adminService.CreateInstructorAPI)).Methods("POST")
	r.HandleFunc("/api/admin/courses", adminOnly(adminService.CreateCourseAPI)).Methods("POST")
	r.HandleFunc("/api/admin/courses/{id}", adminOnly(adminService.UpdateCourseAPI)).Methods("PUT")
	r.HandleFunc("/api/admin/courses/{id}", adminOnly(adminService.DeleteCourseAPI)).Methods("DELETE")
	r.HandleFunc("/api/admin/courses/{id}/lessons", adminOnly(adminService.CreateLessonAPI)).Methods("POST")
	r.HandleFunc("/api/admin/courses/{id}/lessons/{lesson}", adminOnly(adminService.GetLessonAPI)).Methods("GET")
	r.HandleFunc("/api/admin/courses/{id}/lessons/{lesson}", adminOnly(adminService.UpdateLessonAPI)).Methods("PUT")
	r.HandleFunc("/api/admin/courses/{id}/lessons/{lesson}", adminOnly(adminService.DeleteLessonAPI)).Methods("DELETE")
	r.HandleFunc("/api/admin/enrollments", adminOnly(adminService.GetEnrollmentsAPI)).Methods("GET")
	r.HandleFunc("/api/admin/enrollments/{id}/approve", adminOnly(adminService.ApproveEnrollmentAPI)).Methods("PUT")
	r.HandleFunc("/api/admin/users", adminOnly(adminService.GetUsersAPI)).Methods("GET")
	r.HandleFunc("/api/admin/reports", adminOnly(adminService.GetReportAPI)).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	return middleware.CORS(r)
}
