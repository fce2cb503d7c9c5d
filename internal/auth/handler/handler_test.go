package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"rehabdocs/internal/auth/service"
	sessionstore "rehabdocs/internal/auth/store/session"
	userstore "rehabdocs/internal/auth/store/user"
	"rehabdocs/internal/jwttoken"
	"rehabdocs/internal/platform/middleware"
)

func newAuthRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	jwt := jwttoken.NewJWTService("test-signing-key", "rehabdocs-test", "rehabdocs-test")
	svc := service.New(userstore.New(), sessionstore.NewMemory(), jwt, time.Hour, logger)
	if err := svc.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	h := New(svc, logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(svc, logger))
		h.RegisterProtected(r)
	})
	return r
}

func login(t *testing.T, router http.Handler, email, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return rec, ""
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected bearer token type, got %q", resp.TokenType)
	}
	return rec, resp.AccessToken
}

func TestLoginAndMe(t *testing.T) {
	router := newAuthRouter(t)
	rec, token := login(t, router, "admin@example.com", "admin-pass-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging in, got %d: %s", rec.Code, rec.Body.String())
	}
	if token == "" {
		t.Fatalf("expected a token in the login response")
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, req)
	if meRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d: %s", meRec.Code, meRec.Body.String())
	}

	var me struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(meRec.Body).Decode(&me); err != nil {
		t.Fatalf("failed to decode me response: %v", err)
	}
	if me.Email != "admin@example.com" {
		t.Fatalf("unexpected email %q", me.Email)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := newAuthRouter(t)
	rec, _ := login(t, router, "admin@example.com", "wrong-pass")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	router := newAuthRouter(t)
	badPass, _ := login(t, router, "admin@example.com", "wrong-pass")
	badEmail, _ := login(t, router, "nobody@example.com", "whatever-1")
	if badPass.Code != badEmail.Code {
		t.Fatalf("status must not leak account existence: %d vs %d", badPass.Code, badEmail.Code)
	}
	if badPass.Body.String() != badEmail.Body.String() {
		t.Fatalf("body must not leak account existence: %s vs %s", badPass.Body.String(), badEmail.Body.String())
	}
}

func TestMeRequiresToken(t *testing.T) {
	router := newAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	router := newAuthRouter(t)
	rec, token := login(t, router, "admin@example.com", "admin-pass-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging in, got %d", rec.Code)
	}

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewReader([]byte("{}")))
	logoutReq.Header.Set("Authorization", "Bearer "+token)
	logoutReq.Header.Set("Content-Type", "application/json")
	logoutRec := httptest.NewRecorder()
	router.ServeHTTP(logoutRec, logoutReq)
	if logoutRec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging out, got %d: %s", logoutRec.Code, logoutRec.Body.String())
	}

	// The token is dead once its session is gone.
	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, meReq)
	if meRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", meRec.Code)
	}
}
