package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/enrollment"
	"github.com/s/elearner/internal/logger"
	"github.com/s/elearner/internal/models"

	"gorm.io/gorm"
)

// SessionName is the cookie session holding the logged in user.
const SessionName = "session"

type Handler struct {
	DB       *gorm.DB
	Store    *sessions.CookieStore
	Config   *oauth2.Config
	Engine   *enrollment.Engine
	Log      *logger.Logger
	Validate *validator.Validate
}

// NewHandler wires the shared request dependencies. config may be nil when
// Google login is not configured.
func NewHandler(db *gorm.DB, store *sessions.CookieStore, config *oauth2.Config, engine *enrollment.Engine, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		DB:       db,
		Store:    store,
		Config:   config,
		Engine:   engine,
		Log:      log,
		Validate: validator.New(),
	}
}

func (h *Handler) GetAuthenticatedUserID(r *http.Request) (uint, bool) {
	session, _ := h.Store.Get(r, SessionName)

	userID, ok := session.Values["user_id"].(uint)
	return userID, ok && userID != 0
}

// Identity is the engine caller for the request.
func (h *Handler) Identity(r *http.Request) auth.Identity {
	if userID, ok := h.GetAuthenticatedUserID(r); ok {
		return auth.User(userID)
	}
	return auth.Anonymous
}

// GetUserRoleID returns RoleGuest for anonymous requests and unknown users.
func (h *Handler) GetUserRoleID(r *http.Request) (uint, uint) {
	userID, ok := h.GetAuthenticatedUserID(r)
	if !ok {
		return models.RoleGuest, 0
	}

	var user models.User
	if err := h.DB.WithContext(r.Context()).Select("role_id").First(&user, userID).Error; err != nil {
		return models.RoleGuest, userID
	}
	return user.RoleID, userID
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the public message for the error code only.
// Internal failures are logged with the cause.
func (h *Handler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		h.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.Log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	}
	WriteJSON(w, code.HTTPStatus(), map[string]string{"error": apperr.PublicMessage(code)})
}

// Decode reads a JSON body into dst and runs the validate tags on it.
func (h *Handler) Decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "decode body", err)
	}
	if err := h.Validate.Struct(dst); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "validate body", err)
	}
	return nil
}

// PathID parses a numeric route variable. Malformed ids are reported as not
// found, the same as ids that do not exist.
func PathID(r *http.Request, key string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[key], 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("bad " + key)
	}
	return uint(id), nil
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
