package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/supportdesk/apiserver/config"
	"github.com/supportdesk/apiserver/internal/services"
	"github.com/supportdesk/apiserver/internal/store"
	"github.com/supportdesk/apiserver/types"
)

const testSecret = "test-secret"

// memUserRepo is an in-memory services.UserRepository for handler tests.
type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func newAuthTestRouter(repo *memUserRepo) *chi.Mux {
	userService := services.NewUserService(repo)
	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		AuthRouter(r, userService, config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour})
	})
	return router
}

func newRequestWithAuth(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func registerTestUser(t *testing.T, router http.Handler, name, email, password string) AuthResponse {
	t.Helper()

	rr := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"name": name, "email": email, "password": password,
	}, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var parsed AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if parsed.Token == "" {
		t.Fatalf("expected token in register response")
	}
	return parsed
}

func TestRegisterThenLogin_SameSubject(t *testing.T) {
	router := newAuthTestRouter(newMemUserRepo())

	registered := registerTestUser(t, router, "A", "a@x.com", "p")

	rr := doJSON(t, router, http.MethodPost, "/api/users/login", map[string]string{
		"email": "a@x.com", "password": "p",
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login status: got %d want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var loggedIn AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&loggedIn); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	registeredSubject, err := parseTokenSubject(registered.Token, []byte(testSecret))
	if err != nil {
		t.Fatalf("parse registered token: %v", err)
	}
	loginSubject, err := parseTokenSubject(loggedIn.Token, []byte(testSecret))
	if err != nil {
		t.Fatalf("parse login token: %v", err)
	}
	if registeredSubject != loginSubject {
		t.Fatalf("subject mismatch: register %q login %q", registeredSubject, loginSubject)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	router := newAuthTestRouter(newMemUserRepo())

	rr := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"name": "A", "email": "", "password": "p",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	router := newAuthTestRouter(newMemUserRepo())

	registerTestUser(t, router, "A", "a@x.com", "p")

	rr := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"name": "B", "email": "a@x.com", "password": "q",
	}, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	router := newAuthTestRouter(newMemUserRepo())

	registerTestUser(t, router, "A", "a@x.com", "p")

	rr := doJSON(t, router, http.MethodPost, "/api/users/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := newAuthTestRouter(newMemUserRepo())

	rr := doJSON(t, router, http.MethodPost, "/api/users/login", map[string]string{
		"email": "nobody@x.com", "password": "p",
	}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMe_ReturnsUserWithoutPasswordHash(t *testing.T) {
	router := newAuthTestRouter(newMemUserRepo())

	registered := registerTestUser(t, router, "A", "a@x.com", "p")

	rr := doJSON(t, router, http.MethodGet, "/api/users/me", nil, registered.Token)
	if rr.Code != http.StatusOK {
		t.Fatalf("me status: got %d want %d", rr.Code, http.StatusOK)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("me response leaked password material: %s", rr.Body.String())
	}

	var user types.User
	if err := json.NewDecoder(rr.Body).Decode(&user); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
}

// guardTestRouter mounts a protected probe handler behind RequireAuth and
// records whether the probe ever ran.
func guardTestRouter(repo *memUserRepo, called *bool) http.Handler {
	userService := services.NewUserService(repo)
	middleware := RequireAuth(testSecret, userService)
	return middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireAuth_Failures(t *testing.T) {
	repo := newMemUserRepo()
	user, err := repo.Create(context.Background(), types.User{Name: "A", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	validToken, err := issueToken(user.ID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	expiredToken, err := issueToken(user.ID, []byte(testSecret), -time.Hour)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	wrongSecretToken, err := issueToken(user.ID, []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("issue wrong-secret token: %v", err)
	}
	deletedUserToken, err := issueToken(user.ID+100, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("issue deleted-user token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "malformed header", header: "Token xyz"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expiredToken},
		{name: "wrong secret", header: "Bearer " + wrongSecretToken},
		{name: "deleted principal", header: "Bearer " + deletedUserToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := guardTestRouter(repo, &called)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newRequestWithAuth(tt.header))

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if called {
				t.Fatalf("downstream handler ran despite auth failure")
			}
		})
	}

	t.Run("valid token admits", func(t *testing.T) {
		called := false
		handler := guardTestRouter(repo, &called)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newRequestWithAuth("Bearer "+validToken))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !called {
			t.Fatalf("downstream handler did not run for valid token")
		}
	})
}
