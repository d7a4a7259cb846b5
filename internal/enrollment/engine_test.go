package enrollment_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/enrollment"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
	"github.com/s/elearner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

func newEngine(db *gorm.DB) *enrollment.Engine {
	return enrollment.New(db, nil, nil, enrollment.WithClock(func() time.Time { return fixedNow }))
}

func approve(t *testing.T, db *gorm.DB, e *enrollment.Engine, userID, courseID uint) {
	t.Helper()
	row, err := storage.FindEnrollment(db, userID, courseID)
	require.NoError(t, err)
	require.NoError(t, e.Approve(context.Background(), row.ID))
}

func statusOf(t *testing.T, db *gorm.DB, e *enrollment.Engine, userID, courseID uint) enrollment.Status {
	t.Helper()
	row, err := storage.FindEnrollment(db, userID, courseID)
	require.NoError(t, err)
	s, err := e.Status(context.Background(), *row)
	require.NoError(t, err)
	return s
}

func TestEnroll_IsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 3)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()
	who := auth.User(user.ID)

	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))
	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))

	var n int64
	require.NoError(t, db.Model(&models.CourseEnrollment{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	enrolled, err := e.IsEnrolled(ctx, who, cat.Course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	row, err := e.GetEnrollment(ctx, who, cat.Course.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.False(t, row.Approved)
	assert.Nil(t, row.CurrentLessonID)
	assert.Nil(t, row.CompletedDate)

	entries, err := storage.ListActivity(db, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnroll_Failures(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 1)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()

	err := e.Enroll(ctx, auth.Anonymous, cat.Course.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	err = e.Enroll(ctx, auth.User(user.ID), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLookups_Anonymous(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 1)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()

	enrolled, err := e.IsEnrolled(ctx, auth.Anonymous, cat.Course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	row, err := e.GetEnrollment(ctx, auth.Anonymous, cat.Course.ID)
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = e.GetEnrollment(ctx, auth.User(user.ID), cat.Course.ID)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGetLesson_NotFoundReasons(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 2)
	other := testutil.SeedCourse(t, db, cat.Category.ID, cat.Instructor.ID, "Other")
	otherLessons := testutil.SeedLessons(t, db, other.ID, 1)
	enrolled := testutil.SeedUser(t, db, "in@example.com")
	stranger := testutil.SeedUser(t, db, "out@example.com")
	e := newEngine(db)
	ctx := context.Background()
	require.NoError(t, e.Enroll(ctx, auth.User(enrolled.ID), cat.Course.ID))

	cases := []struct {
		name     string
		who      auth.Identity
		courseID uint
		lessonID uint
	}{
		{"missing course", auth.User(enrolled.ID), 999, cat.Lessons[0].ID},
		{"anonymous", auth.Anonymous, cat.Course.ID, cat.Lessons[0].ID},
		{"not enrolled", auth.User(stranger.ID), cat.Course.ID, cat.Lessons[0].ID},
		{"lesson of another course", auth.User(enrolled.ID), cat.Course.ID, otherLessons[0].ID},
		{"missing lesson", auth.User(enrolled.ID), cat.Course.ID, 999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.GetLesson(ctx, tc.who, tc.courseID, tc.lessonID)
			assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

			_, err = e.CompleteLesson(ctx, tc.who, tc.courseID, tc.lessonID)
			assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
		})
	}

	// Approval is not needed to read a lesson.
	lesson, err := e.GetLesson(ctx, auth.User(enrolled.ID), cat.Course.ID, cat.Lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Lesson 2", lesson.Title)
}

func TestCompleteLesson_ThreeLessonScenario(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 3)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()
	who := auth.User(user.ID)
	l1, l2, l3 := cat.Lessons[0].ID, cat.Lessons[1].ID, cat.Lessons[2].ID

	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))
	s := statusOf(t, db, e, user.ID, cat.Course.ID)
	assert.Equal(t, 0.0, s.Progress())
	assert.False(t, s.Enrollment.Approved)
	require.NotNil(t, s.NextLessonID())
	assert.Equal(t, l1, *s.NextLessonID())

	approve(t, db, e, user.ID, cat.Course.ID)

	next, err := e.CompleteLesson(ctx, who, cat.Course.ID, l1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, l2, *next)
	s = statusOf(t, db, e, user.ID, cat.Course.ID)
	assert.Equal(t, 33.33, s.Progress())
	require.NotNil(t, s.Enrollment.CurrentLessonID)
	assert.Equal(t, l2, *s.Enrollment.CurrentLessonID)

	next, err = e.CompleteLesson(ctx, who, cat.Course.ID, l2)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, l3, *next)
	s = statusOf(t, db, e, user.ID, cat.Course.ID)
	assert.Equal(t, 66.67, s.Progress())
	assert.False(t, s.CanDownloadCertificate())

	next, err = e.CompleteLesson(ctx, who, cat.Course.ID, l3)
	require.NoError(t, err)
	assert.Nil(t, next)
	s = statusOf(t, db, e, user.ID, cat.Course.ID)
	assert.Equal(t, 100.0, s.Progress())
	assert.True(t, s.IsCompleted())
	assert.True(t, s.CanDownloadCertificate())
	require.NotNil(t, s.Enrollment.CompletedDate)
	assert.True(t, fixedNow.Equal(*s.Enrollment.CompletedDate))
	require.NotNil(t, s.Enrollment.CertificateID)
	assert.Regexp(t, `^[0-9a-f]{32}$`, *s.Enrollment.CertificateID)
	require.NotNil(t, s.Enrollment.CurrentLessonID)
	assert.Equal(t, l3, *s.Enrollment.CurrentLessonID)

	certID := *s.Enrollment.CertificateID

	// Re-completing the last lesson changes nothing.
	next, err = e.CompleteLesson(ctx, who, cat.Course.ID, l3)
	require.NoError(t, err)
	assert.Nil(t, next)
	s = statusOf(t, db, e, user.ID, cat.Course.ID)
	assert.Equal(t, certID, *s.Enrollment.CertificateID)
	assert.Len(t, s.AttendedLessonIDs, 3)
}

func TestCompleteLesson_StrictOrder(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 3)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()
	who := auth.User(user.ID)
	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))

	_, err := e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[2].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[1].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	s := statusOf(t, db, e, user.ID, cat.Course.ID)
	assert.Empty(t, s.AttendedLessonIDs)
	assert.Nil(t, s.Enrollment.CompletedDate)

	_, err = e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[0].ID)
	require.NoError(t, err)
	_, err = e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[1].ID)
	require.NoError(t, err)

	// Going back to an attended lesson is allowed and keeps the resume point.
	next, err := e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[0].ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, cat.Lessons[1].ID, *next)

	s = statusOf(t, db, e, user.ID, cat.Course.ID)
	require.NotNil(t, s.Enrollment.CurrentLessonID)
	assert.Equal(t, cat.Lessons[2].ID, *s.Enrollment.CurrentLessonID)
}

func TestCompleteLesson_FollowsPositionNotID(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 0)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()
	who := auth.User(user.ID)

	second := models.CourseLesson{CourseID: cat.Course.ID, Title: "Second", Position: 2}
	first := models.CourseLesson{CourseID: cat.Course.ID, Title: "First", Position: 1}
	require.NoError(t, storage.CreateLesson(db, &second))
	require.NoError(t, storage.CreateLesson(db, &first))
	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))

	next, err := e.CompleteLesson(ctx, who, cat.Course.ID, first.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, second.ID, *next)

	next, err = e.CompleteLesson(ctx, who, cat.Course.ID, second.ID)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCompleteLesson_ConcurrentLastLesson(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 2)
	user := testutil.SeedUser(t, db, "a@example.com")
	var seq int
	var mu sync.Mutex
	e := enrollment.New(db, nil, nil, enrollment.WithCertificateIDs(func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("%032d", seq)
	}))
	ctx := context.Background()
	who := auth.User(user.ID)

	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))
	_, err := e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[0].ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[1].ID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	s := statusOf(t, db, e, user.ID, cat.Course.ID)
	require.NotNil(t, s.Enrollment.CertificateID)
	assert.Equal(t, fmt.Sprintf("%032d", 1), *s.Enrollment.CertificateID)

	var completions int64
	require.NoError(t, db.Model(&models.ActivityLog{}).
		Where("action = ?", models.ActionCourseComplete).
		Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
}

func TestApprove(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 1)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()
	require.NoError(t, e.Enroll(ctx, auth.User(user.ID), cat.Course.ID))

	approve(t, db, e, user.ID, cat.Course.ID)
	approve(t, db, e, user.ID, cat.Course.ID)

	row, err := storage.FindEnrollment(db, user.ID, cat.Course.ID)
	require.NoError(t, err)
	assert.True(t, row.Approved)

	assert.ErrorIs(t, e.Approve(ctx, 999), apperr.ErrNotFound)
}

func TestClassroom(t *testing.T) {
	db := testutil.DB(t)
	cat := testutil.SeedCatalog(t, db, 2)
	user := testutil.SeedUser(t, db, "a@example.com")
	e := newEngine(db)
	ctx := context.Background()
	who := auth.User(user.ID)
	require.NoError(t, e.Enroll(ctx, who, cat.Course.ID))
	_, err := e.CompleteLesson(ctx, who, cat.Course.ID, cat.Lessons[0].ID)
	require.NoError(t, err)

	room, err := e.Classroom(ctx, who, cat.Course.ID, cat.Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, room.HasNext)
	assert.Equal(t, []uint{cat.Lessons[0].ID}, room.AttendedLessonIDs)
	assert.Len(t, room.Lessons, 2)
	assert.Equal(t, 50.0, room.Progress)

	room, err = e.Classroom(ctx, who, cat.Course.ID, cat.Lessons[1].ID)
	require.NoError(t, err)
	assert.False(t, room.HasNext)
}

func TestStatus_EmptyCourse(t *testing.T) {
	s := enrollment.Status{TotalLessons: 0}
	assert.Equal(t, 0.0, s.Progress())
	assert.True(t, s.IsCompleted())
	assert.False(t, s.CanDownloadCertificate())
	assert.Nil(t, s.NextLessonID())
}
