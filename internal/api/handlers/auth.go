package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

// UserStore is the slice of persistence the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *storage.User) error
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
	UpdateUserProfile(ctx context.Context, user *storage.User) error
	ListUsersExcept(ctx context.Context, userID uuid.UUID) ([]*storage.User, error)
}

type AuthHandler struct {
	db     UserStore
	issuer *auth.TokenIssuer
	secure bool
}

func NewAuthHandler(db UserStore, issuer *auth.TokenIssuer, secureCookies bool) *AuthHandler {
	return &AuthHandler{db: db, issuer: issuer, secure: secureCookies}
}

type registerRequest struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	SkillsTeach []string `json:"skills_teach"`
	SkillsLearn []string `json:"skills_learn"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *storage.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation failed", "username, email and password are required")
		return
	}

	if _, err := h.db.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "user exists", "user already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	if _, err := h.db.GetUserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusBadRequest, "username taken", "username is already taken")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	user := &storage.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		SkillsTeach:  req.SkillsTeach,
		SkillsLearn:  req.SkillsLearn,
	}
	if user.SkillsTeach == nil {
		user.SkillsTeach = []string{}
	}
	if user.SkillsLearn == nil {
		user.SkillsLearn = []string{}
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	if err := h.setSessionCookie(w, user); err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "invalid credentials", "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusBadRequest, "invalid credentials", "invalid credentials")
		return
	}

	if err := h.setSessionCookie(w, user); err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Username    string   `json:"username"`
	SkillsTeach []string `json:"skills_teach"`
	SkillsLearn []string `json:"skills_learn"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := h.db.GetUserByUsername(r.Context(), req.Username); err == nil {
			writeError(w, http.StatusBadRequest, "username taken", "username is already taken")
			return
		} else if !errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "server error", err.Error())
			return
		}
		user.Username = req.Username
	}

	if req.SkillsTeach != nil {
		user.SkillsTeach = req.SkillsTeach
	}
	if req.SkillsLearn != nil {
		user.SkillsLearn = req.SkillsLearn
	}

	if err := h.db.UpdateUserProfile(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// GetUsers lists every other user, best rated first.
func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	users, err := h.db.ListUsersExcept(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	public := make([]storage.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	writeJSON(w, http.StatusOK, public)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, user *storage.User) error {
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
