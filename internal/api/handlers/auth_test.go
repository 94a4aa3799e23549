package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

type fakeUserStore struct {
	users map[uuid.UUID]*storage.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*storage.User)}
}

func (s *fakeUserStore) CreateUser(ctx context.Context, user *storage.User) error {
	user.ID = uuid.New()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error) {
	if user, ok := s.users[userID]; ok {
		return user, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUserStore) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUserStore) UpdateUserProfile(ctx context.Context, user *storage.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) ListUsersExcept(ctx context.Context, userID uuid.UUID) ([]*storage.User, error) {
	var out []*storage.User
	for _, user := range s.users {
		if user.ID != userID {
			out = append(out, user)
		}
	}
	return out, nil
}

func newAuthTestHandler() (*AuthHandler, *fakeUserStore) {
	store := newFakeUserStore()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthHandler(store, issuer, false), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body)))
	return rec
}

func TestRegisterSetsCookieAndStoresHash(t *testing.T) {
	handler, store := newAuthTestHandler()

	rec := postJSON(t, handler.Register, "/api/auth/register", map[string]any{
		"username":     "alice",
		"email":        "alice@example.com",
		"password":     "s3cret",
		"skills_teach": []string{"go"},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("register must set the session cookie")
	}
	if !sessionCookie.HttpOnly {
		t.Fatal("session cookie must be httpOnly")
	}

	user, err := store.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if user.PasswordHash == "s3cret" {
		t.Fatal("password must be hashed")
	}
	if user.SkillsLearn == nil {
		t.Fatal("skills_learn should default to an empty list")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	handler, _ := newAuthTestHandler()

	first := map[string]any{"username": "alice", "email": "alice@example.com", "password": "x"}
	if rec := postJSON(t, handler.Register, "/api/auth/register", first); rec.Code != http.StatusCreated {
		t.Fatalf("first register: want 201, got %d", rec.Code)
	}

	dupEmail := map[string]any{"username": "other", "email": "alice@example.com", "password": "x"}
	if rec := postJSON(t, handler.Register, "/api/auth/register", dupEmail); rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email: want 400, got %d", rec.Code)
	}

	dupUsername := map[string]any{"username": "alice", "email": "new@example.com", "password": "x"}
	if rec := postJSON(t, handler.Register, "/api/auth/register", dupUsername); rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate username: want 400, got %d", rec.Code)
	}
}

func TestRegisterValidatesRequiredFields(t *testing.T) {
	handler, _ := newAuthTestHandler()

	rec := postJSON(t, handler.Register, "/api/auth/register", map[string]any{
		"username": "  ",
		"email":    "a@example.com",
		"password": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank username: want 400, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	handler, _ := newAuthTestHandler()
	register := map[string]any{"username": "alice", "email": "alice@example.com", "password": "s3cret"}
	if rec := postJSON(t, handler.Register, "/api/auth/register", register); rec.Code != http.StatusCreated {
		t.Fatalf("register: want 201, got %d", rec.Code)
	}

	t.Run("correct credentials", func(t *testing.T) {
		rec := postJSON(t, handler.Login, "/api/auth/login", map[string]any{
			"email": "alice@example.com", "password": "s3cret",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := postJSON(t, handler.Login, "/api/auth/login", map[string]any{
			"email": "alice@example.com", "password": "nope",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := postJSON(t, handler.Login, "/api/auth/login", map[string]any{
			"email": "ghost@example.com", "password": "s3cret",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})
}
