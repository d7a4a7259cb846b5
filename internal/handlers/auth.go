package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/models"
	"github.com/s/elearner/internal/storage"
)

// googleUser is the userinfo v2 payload.
type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Store.Get(r, SessionName)
	state := uuid.NewString()
	session.Values["oauth_state"] = state
	if err := session.Save(r, w); err != nil {
		h.WriteError(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	http.Redirect(w, r, h.Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Store.Get(r, SessionName)
	expected := toString(session.Values["oauth_state"])
	delete(session.Values, "oauth_state")
	if expected == "" || r.URL.Query().Get("state") != expected {
		h.WriteError(w, r, apperr.New(apperr.CodeUnauthenticated, "invalid oauth state"))
		return
	}

	ctx := r.Context()
	token, err := h.Config.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.WriteError(w, r, apperr.Wrap(apperr.CodeUnauthenticated, "token exchange", err))
		return
	}

	resp, err := h.Config.Client(ctx, token).Get(auth.GoogleUserInfoURL)
	if err != nil {
		h.WriteError(w, r, fmt.Errorf("google userinfo: %w", err))
		return
	}
	defer resp.Body.Close()

	var info googleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		h.WriteError(w, r, fmt.Errorf("decode userinfo: %w", err))
		return
	}

	db := h.DB.WithContext(ctx)
	userID, err := storage.SaveUser(db, models.User{
		GoogleID: info.ID,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	})
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	if err := storage.LogActivity(db, userID, models.ActionLogin, nil); err != nil {
		h.Log.Warn("login activity not recorded", "user_id", userID, "error", err)
	}

	session.Values["user_id"] = userID
	session.Values["email"] = info.Email
	session.Values["name"] = info.Name
	session.Values["picture_url"] = info.Picture
	if err := session.Save(r, w); err != nil {
		h.WriteError(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	h.Log.Info("user logged in", "user_id", userID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Store.Get(r, SessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options = &sessions.Options{Path: "/", MaxAge: -1}
	_ = session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
