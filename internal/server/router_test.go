package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/s/elearner/internal/enrollment"
	"github.com/s/elearner/internal/handlers"
	"github.com/s/elearner/internal/logger"
	"github.com/s/elearner/internal/server"
	"github.com/s/elearner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	db     *gorm.DB
	store  *sessions.CookieStore
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.DB(t)
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	h := handlers.NewHandler(db, store, nil, enrollment.New(db, logger.Nop(), nil), logger.Nop())
	return &testServer{db: db, store: store, router: server.NewRouter(h)}
}

// login returns a session cookie for the user, as the OAuth callback would set.
func (s *testServer) login(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := s.store.Get(req, handlers.SessionName)
	require.NoError(t, err)
	session.Values["user_id"] = userID
	require.NoError(t, session.Save(req, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPublicCatalog(t *testing.T) {
	s := newTestServer(t)
	cat := testutil.SeedCatalog(t, s.db, 2)

	rec := s.do(t, http.MethodGet, "/api/courses?q=test&dif=BE", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", cat.Course.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["is_enrolled"])
	assert.Len(t, body["lessons"], 2)

	rec = s.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFoundIsUniform(t *testing.T) {
	s := newTestServer(t)
	cat := testutil.SeedCatalog(t, s.db, 2)
	user := testutil.SeedUser(t, s.db, "a@example.com")
	cookie := s.login(t, user.ID)

	paths := []string{
		"/api/courses/999",
		"/api/courses/abc",
		fmt.Sprintf("/api/courses/%d/lessons/%d", cat.Course.ID, cat.Lessons[0].ID), // not enrolled
		fmt.Sprintf("/api/courses/%d/certificate", cat.Course.ID),
		fmt.Sprintf("/api/courses/%d/certificate.pdf", cat.Course.ID),
		"/no/such/route",
	}
	for _, p := range paths {
		rec := s.do(t, http.MethodGet, p, "", cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code, p)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String(), p)
	}
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t)
	cat := testutil.SeedCatalog(t, s.db, 1)

	cases := []struct{ method, path string }{
		{http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", cat.Course.ID)},
		{http.MethodGet, "/api/me/courses"},
		{http.MethodGet, "/personal"},
		{http.MethodGet, "/api/admin/enrollments"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d", cat.Course.ID)},
	}
	for _, tc := range cases {
		rec := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestAnonymousStudyRoutesAreNotFound(t *testing.T) {
	s := newTestServer(t)
	cat := testutil.SeedCatalog(t, s.db, 1)
	course, lesson := cat.Course.ID, cat.Lessons[0].ID

	cases := []struct{ method, path string }{
		{http.MethodGet, fmt.Sprintf("/api/courses/%d/lessons/%d", course, lesson)},
		{http.MethodPost, fmt.Sprintf("/api/courses/%d/lessons/%d/complete", course, lesson)},
		{http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate", course)},
		{http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate.pdf", course)},
		{http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate.png", course)},
	}
	for _, tc := range cases {
		rec := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String(), tc.path)
	}
}

func TestStudentFlow(t *testing.T) {
	s := newTestServer(t)
	cat := testutil.SeedCatalog(t, s.db, 2)
	student := testutil.SeedUser(t, s.db, "student@example.com")
	staff := testutil.SeedAdmin(t, s.db, "staff@example.com")
	studentCookie := s.login(t, student.ID)
	staffCookie := s.login(t, staff.ID)
	course := cat.Course.ID

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", course), "", studentCookie)
	body := decode(t, rec)
	assert.Equal(t, true, body["is_enrolled"])
	assert.Equal(t, false, body["is_approved"])

	// Out of order.
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/lessons/%d/complete", course, cat.Lessons[1].ID), "", studentCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/enrollments?status=pending", "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	require.EqualValues(t, 1, page["total"])
	enrollmentID := page["data"].([]interface{})[0].(map[string]interface{})["id"]

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/enrollments/%v/approve", enrollmentID), "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Enrolling again reports the existing approval.
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, true, body["enrollment"].(map[string]interface{})["approved"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/lessons/%d", course, cat.Lessons[0].ID), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["has_next"])

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/lessons/%d/complete", course, cat.Lessons[0].ID), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, cat.Lessons[1].ID, body["next_lesson_id"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate.pdf", course), "", studentCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/lessons/%d/complete", course, cat.Lessons[1].ID), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Nil(t, body["next_lesson_id"])
	assert.Equal(t, true, body["course_completed"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, 100.0, body["progress"])
	assert.Equal(t, true, body["can_download_certificate"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate.pdf", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "certificate_Test_Course.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/certificate.png", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = s.do(t, http.MethodGet, "/api/me/courses", "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Len(t, body["completed"], 1)
	assert.Empty(t, body["pending"])
	assert.Empty(t, body["current"])

	rec = s.do(t, http.MethodGet, "/personal", "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "User", body["role"])
	assert.NotEmpty(t, body["activity"])
}

func TestAdminAuthoring(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, "user@example.com")
	staff := testutil.SeedAdmin(t, s.db, "staff@example.com")
	userCookie := s.login(t, user.ID)
	staffCookie := s.login(t, staff.ID)

	rec := s.do(t, http.MethodPost, "/api/admin/categories", `{"title":"Data"}`, userCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/categories", `{"title":""}`, staffCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/categories", `{"title":"Data"}`, staffCookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	categoryID := decode(t, rec)["id"]

	rec = s.do(t, http.MethodPost, "/api/admin/instructors", `{"name":"Grace","photo_url":"not a url"}`, staffCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/instructors", `{"name":"Grace"}`, staffCookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	instructorID := decode(t, rec)["id"]

	rec = s.do(t, http.MethodPost, "/api/admin/courses",
		fmt.Sprintf(`{"title":"SQL","category_id":%v,"instructor_id":%v,"difficulty":"XX"}`, categoryID, instructorID), staffCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/courses",
		fmt.Sprintf(`{"title":"SQL","category_id":%v,"instructor_id":%v,"difficulty":"IN"}`, categoryID, instructorID), staffCookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	courseID := body["id"]
	assert.Equal(t, "Grace", body["instructor"].(map[string]interface{})["name"])

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/courses/%v/lessons", courseID), `{"title":"Intro"}`, staffCookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["position"])

	rec = s.do(t, http.MethodPost, "/api/admin/courses/999/lessons", `{"title":"Intro"}`, staffCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/enrollments/999/approve", "", staffCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCatalogEditing(t *testing.T) {
	s := newTestServer(t)
	cat := testutil.SeedCatalog(t, s.db, 2)
	student := testutil.SeedUser(t, s.db, "student@example.com")
	staff := testutil.SeedAdmin(t, s.db, "staff@example.com")
	staffCookie := s.login(t, staff.ID)
	studentCookie := s.login(t, student.ID)
	course := cat.Course.ID

	rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/courses/%d", course),
		fmt.Sprintf(`{"title":"Renamed","category_id":%d,"instructor_id":%d,"difficulty":"AD","rating":4.5}`,
			cat.Category.ID, cat.Instructor.ID), staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Renamed", body["title"])
	assert.Equal(t, "AD", body["difficulty"])

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/courses/%d", course),
		fmt.Sprintf(`{"title":"Renamed","category_id":999,"instructor_id":%d,"difficulty":"AD"}`, cat.Instructor.ID), staffCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	lessonPath := fmt.Sprintf("/api/admin/courses/%d/lessons/%d", course, cat.Lessons[0].ID)
	rec = s.do(t, http.MethodPut, lessonPath, `{"title":"Welcome","brief":"Start here."}`, staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["position"])

	rec = s.do(t, http.MethodPut, lessonPath, `{"title":"Welcome","position":2}`, staffCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, lessonPath, "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome", decode(t, rec)["title"])

	rec = s.do(t, http.MethodDelete, lessonPath, "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, lessonPath, "", staffCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course), "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/users?search=student", "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 1, body["total"])

	rec = s.do(t, http.MethodGet, "/api/admin/reports", "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 2, body["users"])
	assert.EqualValues(t, 1, body["enrollments"])
	assert.EqualValues(t, 1, body["pending"])
	assert.EqualValues(t, 0, body["completed"])

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d", course), "", staffCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d", course), "", staffCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", course), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/me/courses", "", studentCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["pending"])
}

func TestGoogleLoginNotMountedWithoutConfig(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/auth/google/login", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/logout", "", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodOptions, "/api/courses", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
