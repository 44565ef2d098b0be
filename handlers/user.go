package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"budgettracker/apperr"
	"budgettracker/logging"
	"budgettracker/middleware"
	"budgettracker/models"
	"budgettracker/store"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserHandler struct {
	users  store.Users
	auth   *middleware.Auth
	secure bool
}

// NewUserHandler serves signup, signin and session lookup. secure marks the
// session cookie Secure and SameSite=None for cross-site production use.
func NewUserHandler(users store.Users, auth *middleware.Auth, secure bool) *UserHandler {
	return &UserHandler{
		users:  users,
		auth:   auth,
		secure: secure,
	}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	OK    bool         `json:"ok"`
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respondError(w, r, apperr.Validation(apperr.CodeEmailAndPasswordReq))
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, r, apperr.Validation(apperr.CodePasswordNotValidated))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if user.Name == "" {
		user.Name = email
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, r, apperr.Conflict(apperr.CodeUserAlreadyRegistered))
			return
		}
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).WithField(logging.FieldUserID, user.ID).Info("User registered")
	h.startSession(w, r, user)
}

func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respondError(w, r, apperr.Validation(apperr.CodeEmailAndPasswordReq))
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, invalidCredentials())
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, r, invalidCredentials())
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := h.users.Update(r.Context(), user); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("Failed to record last login")
	}

	h.startSession(w, r, user)
}

// SigninToken returns the user behind the current session.
func (h *UserHandler) SigninToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{OK: true, User: user, Token: token})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	http.SetCookie(w, h.cookie(token, int(h.auth.Expiration().Seconds())))
	writeJSON(w, http.StatusOK, sessionResponse{OK: true, User: user, Token: token})
}

func (h *UserHandler) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func invalidCredentials() *apperr.Error {
	return &apperr.Error{Kind: apperr.KindUnauthenticated, Code: apperr.CodeEmailOrPasswordInvalid}
}
