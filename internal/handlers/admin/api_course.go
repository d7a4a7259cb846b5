package admin

import (
	"net/http"

	"github.com/s/elearner/internal/handlers"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

type categoryRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type instructorRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
	Bio      string `json:"bio"`
}

type courseRequest struct {
	Title         string  `json:"title" validate:"required,max=255"`
	Description   string  `json:"description"`
	CategoryID    uint    `json:"category_id" validate:"required"`
	InstructorID  uint    `json:"instructor_id" validate:"required"`
	Difficulty    string  `json:"difficulty" validate:"required,oneof=BE IN AD"`
	DurationWeeks uint    `json:"duration_weeks"`
	Rating        float64 `json:"rating" validate:"gte=0,lte=5"`
	ThumbnailURL  string  `json:"thumbnail_url" validate:"omitempty,url"`
}

// Position 0 appends the lesson after the current last one.
type lessonRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Position    int     `json:"position" validate:"gte=0"`
	YoutubeLink string  `json:"youtube_link" validate:"omitempty,url"`
	Description string  `json:"description"`
	Brief       string  `json:"brief" validate:"max=300"`
	FileURL     *string `json:"file_url" validate:"omitempty,url"`
}

func (req courseRequest) course(id uint) models.Course {
	return models.Course{
		ID:            id,
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		InstructorID:  req.InstructorID,
		Difficulty:    models.Difficulty(req.Difficulty),
		DurationWeeks: req.DurationWeeks,
		Rating:        req.Rating,
		ThumbnailURL:  req.ThumbnailURL,
	}
}

func (req lessonRequest) lesson(courseID, id uint) models.CourseLesson {
	return models.CourseLesson{
		ID:          id,
		CourseID:    courseID,
		Position:    req.Position,
		Title:       req.Title,
		YoutubeLink: req.YoutubeLink,
		Description: req.Description,
		Brief:       req.Brief,
		FileURL:     req.FileURL,
	}
}

// POST /api/admin/categories
func (s *Service) CreateCategoryAPI(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.Decode(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}

	category := models.CourseCategory{Title: req.Title}
	if err := storage.CreateCategory(s.DB.WithContext(r.Context()), &category); err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, category)
}

// POST /api/admin/instructors
func (s *Service) CreateInstructorAPI(w http.ResponseWriter, r *http.Request) {
	var req instructorRequest
	if err := s.Decode(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}

	instructor := models.CourseInstructor{Name: req.Name, PhotoURL: req.PhotoURL, Bio: req.Bio}
	if err := storage.CreateInstructor(s.DB.WithContext(r.Context()), &instructor); err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, instructor)
}

// POST /api/admin/courses
func (s *Service) CreateCourseAPI(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := s.Decode(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}

	course := req.course(0)
	db := s.DB.WithContext(r.Context())
	if err := storage.CreateCourse(db, &course); err != nil {
		s.WriteError(w, r, err)
		return
	}

	created, err := storage.GetCourse(db, course.ID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	s.Log.Info("course created", "course_id", created.ID, "title", created.Title)
	handlers.WriteJSON(w, http.StatusCreated, created)
}

// POST /api/admin/courses/{id}/lessons
func (s *Service) CreateLessonAPI(w http.ResponseWriter, r *http.Request) {
	courseID, err := handlers.PathID(r, "id")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var req lessonRequest
	if err := s.Decode(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}

	lesson := req.lesson(courseID, 0)
	if err := storage.CreateLesson(s.DB.WithContext(r.Context()), &lesson); err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, lesson)
}

// PUT /api/admin/courses/{id}
func (s *Service) UpdateCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var req courseRequest
	if err := s.Decode(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}

	course := req.course(id)
	db := s.DB.WithContext(r.Context())
	if err := storage.UpdateCourse(db, &course); err != nil {
		s.WriteError(w, r, err)
		return
	}

	updated, err := storage.GetCourse(db, id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	s.Log.Info("course updated", "course_id", id)
	handlers.WriteJSON(w, http.StatusOK, updated)
}

// DELETE /api/admin/courses/{id}
func (s *Service) DeleteCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	if err := storage.DeleteCourse(s.DB.WithContext(r.Context()), id); err != nil {
		s.WriteError(w, r, err)
		return
	}
	s.Log.Info("course deleted", "course_id", id)
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /api/admin/courses/{id}/lessons/{lesson}
func (s *Service) GetLessonAPI(w http.ResponseWriter, r *http.Request) {
	courseID, lessonID, err := handlers.LessonPath(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	lesson, err := storage.GetLesson(s.DB.WithContext(r.Context()), courseID, lessonID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, lesson)
}

// PUT /api/admin/courses/{id}/lessons/{lesson}
// Position 0 keeps the lesson where it is.
func (s *Service) UpdateLessonAPI(w http.ResponseWriter, r *http.Request) {
	courseID, lessonID, err := handlers.LessonPath(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var req lessonRequest
	if err := s.Decode(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}

	lesson := req.lesson(courseID, lessonID)
	if err := s.Engine.UpdateLesson(r.Context(), &lesson); err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, lesson)
}

// DELETE /api/admin/courses/{id}/lessons/{lesson}
func (s *Service) DeleteLessonAPI(w http.ResponseWriter, r *http.Request) {
	courseID, lessonID, err := handlers.LessonPath(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	if err := s.Engine.DeleteLesson(r.Context(), courseID, lessonID); err != nil {
		s.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

