package handlers

import (
	"net/http"
	"strconv"

	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

// ListCourses: GET /api/courses?q=&cat=&dif=&page=
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.CourseFilter{
		Query:      q.Get("q"),
		Difficulty: models.Difficulty(q.Get("dif")),
	}
	if cat, err := strconv.ParseUint(q.Get("cat"), 10, 64); err == nil {
		filter.CategoryID = uint(cat)
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if !filter.Difficulty.Valid() {
		filter.Difficulty = ""
	}

	page, err := storage.ListCourses(h.DB.WithContext(r.Context()), filter)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := storage.ListCategories(h.DB.WithContext(r.Context()))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, categories)
}

type courseDetail struct {
	Course     *models.Course        `json:"course"`
	Lessons    []models.CourseLesson `json:"lessons"`
	IsEnrolled bool                  `json:"is_enrolled"`
	IsApproved bool                  `json:"is_approved"`
}

// GetCourse: GET /api/courses/{id}
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	db := h.DB.WithContext(r.Context())
	course, err := storage.GetCourse(db, courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	lessons, err := storage.ListLessons(db, courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	enrollment, err := h.Engine.GetEnrollment(r.Context(), h.Identity(r), courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, courseDetail{
		Course:     course,
		Lessons:    lessons,
		IsEnrolled: enrollment != nil,
		IsApproved: enrollment != nil && enrollment.Approved,
	})
}

// Enroll: POST /api/courses/{id}/enroll
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	courseID, err := PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	who := h.Identity(r)
	if err := h.Engine.Enroll(r.Context(), who, courseID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	enrollment, err := h.Engine.GetEnrollment(r.Context(), who, courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	status := "pending"
	if enrollment != nil && enrollment.Approved {
		status = "approved"
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"enrollment": enrollment,
	})
}

// Lesson: GET /api/courses/{id}/lessons/{lesson}
func (h *Handler) Lesson(w http.ResponseWriter, r *http.Request) {
	courseID, lessonID, err := LessonPath(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	room, err := h.Engine.Classroom(r.Context(), h.Identity(r), courseID, lessonID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, room)
}

// CompleteLesson: POST /api/courses/{id}/lessons/{lesson}/complete
func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	courseID, lessonID, err := LessonPath(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	next, err := h.Engine.CompleteLesson(r.Context(), h.Identity(r), courseID, lessonID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"next_lesson_id":   next,
		"course_completed": next == nil,
	})
}

// CertificateStatus: GET /api/courses/{id}/certificate
func (h *Handler) CertificateStatus(w http.ResponseWriter, r *http.Request) {
	courseID, err := PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	status, err := h.Engine.CertificateStatus(r.Context(), h.Identity(r), courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// CertificatePDF: GET /api/courses/{id}/certificate.pdf
func (h *Handler) CertificatePDF(w http.ResponseWriter, r *http.Request) {
	courseID, err := PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	cert, err := h.Engine.CertificateFor(r.Context(), h.Identity(r), courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", cert.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+cert.Filename+`"`)
	_, _ = w.Write(cert.Data)
}

// CertificatePNG: GET /api/courses/{id}/certificate.png
func (h *Handler) CertificatePNG(w http.ResponseWriter, r *http.Request) {
	courseID, err := PathID(r, "id")
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	cert, err := h.Engine.CertificatePreview(r.Context(), h.Identity(r), courseID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", cert.ContentType)
	_, _ = w.Write(cert.Data)
}

// LessonPath reads the {id} and {lesson} route variables.
func LessonPath(r *http.Request) (uint, uint, error) {
	courseID, err := PathID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	lessonID, err := PathID(r, "lesson")
	if err != nil {
		return 0, 0, err
	}
	return courseID, lessonID, nil
}
