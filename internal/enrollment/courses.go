package enrollment

import (
	"context"

	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

// SuggestionLimit caps UserCourses.Suggested.
const SuggestionLimit = 5

// UserCourses groups a user's enrollments for the dashboard. An enrollment
// may appear in more than one group: the checks are independent.
type UserCourses struct {
	Pending   []Status        `json:"pending"`
	Current   []Status        `json:"current"`
	Completed []Status        `json:"completed"`
	Suggested []models.Course `json:"suggested"`
}

func emptyUserCourses() UserCourses {
	return UserCourses{
		Pending:   []Status{},
		Current:   []Status{},
		Completed: []Status{},
		Suggested: []models.Course{},
	}
}

func (e *Engine) GetUserCourses(ctx context.Context, who auth.Identity) (UserCourses, error) {
	out := emptyUserCourses()
	if !who.IsAuthenticated() {
		return out, nil
	}

	db := e.db.WithContext(ctx)
	enrollments, err := storage.ListUserEnrollments(db, who.UserID)
	if err != nil {
		return UserCourses{}, err
	}

	enrollmentIDs := make([]uint, len(enrollments))
	courseIDs := make([]uint, len(enrollments))
	for i, enrollment := range enrollments {
		enrollmentIDs[i] = enrollment.ID
		courseIDs[i] = enrollment.CourseID
	}
	attendedBy, err := storage.AttendedLessonIDsByEnrollment(db, enrollmentIDs)
	if err != nil {
		return UserCourses{}, err
	}
	outlines, err := storage.LessonOutlines(db, courseIDs)
	if err != nil {
		return UserCourses{}, err
	}

	var categoryIDs []uint
	seen := make(map[uint]bool)
	for _, enrollment := range enrollments {
		outline, ok := outlines[enrollment.CourseID]
		var first *uint
		if ok {
			id := outline.FirstLessonID
			first = &id
		}
		status := buildStatus(enrollment, attendedBy[enrollment.ID], outline.Total, first)

		if !enrollment.Approved {
			out.Pending = append(out.Pending, status)
		}
		if enrollment.Approved && !status.IsCompleted() {
			out.Current = append(out.Current, status)
		}
		if status.IsCompleted() {
			out.Completed = append(out.Completed, status)
		}

		if !seen[enrollment.Course.CategoryID] {
			seen[enrollment.Course.CategoryID] = true
			categoryIDs = append(categoryIDs, enrollment.Course.CategoryID)
		}
	}

	suggested, err := storage.SuggestCourses(db, categoryIDs, courseIDs, SuggestionLimit)
	if err != nil {
		return UserCourses{}, err
	}
	if suggested != nil {
		out.Suggested = suggested
	}
	return out, nil
}
