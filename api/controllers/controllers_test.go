package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/users"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

type stubAuthenticator struct {
	user *users.UserDTO
	err  error
}

func (s stubAuthenticator) Authenticate(context.Context, string, string) (*users.UserDTO, error) {
	return s.user, s.err
}

func (s stubAuthenticator) Get(context.Context, int64) (*users.UserDTO, error) {
	return s.user, s.err
}

type stubSessions struct {
	created int64
	revoked string
}

func (s *stubSessions) Create(_ context.Context, userID int64) (string, error) {
	s.created = userID
	return "sid.secret", nil
}

func (s *stubSessions) Revoke(_ context.Context, token string) error {
	s.revoked = token
	return nil
}

func (s *stubSessions) TTL() time.Duration { return 2 * time.Hour }

type stubCartService struct {
	lastUser     int64
	lastItem     int64
	lastQuantity int
	resp         *types.CartResponse
	err          error
}

func (s *stubCartService) Get(_ context.Context, userID int64) (*types.CartResponse, error) {
	s.lastUser = userID
	return s.resp, s.err
}

func (s *stubCartService) AddItem(_ context.Context, userID, productID int64, quantity int) (*types.CartResponse, error) {
	s.lastUser, s.lastItem, s.lastQuantity = userID, productID, quantity
	return s.resp, s.err
}

func (s *stubCartService) UpdateItem(_ context.Context, userID, itemID int64, quantity int) (*types.CartResponse, error) {
	s.lastUser, s.lastItem, s.lastQuantity = userID, itemID, quantity
	return s.resp, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, userID, itemID int64) (*types.CartResponse, error) {
	s.lastUser, s.lastItem = userID, itemID
	return s.resp, s.err
}

func (s *stubCartService) Clear(_ context.Context, userID int64) (*types.CartResponse, error) {
	s.lastUser = userID
	return s.resp, s.err
}

var sessionCfg = config.SessionConfig{CookieName: "sf", TTL: 2 * time.Hour, CookieSecure: true}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return env.Error.Code, env.Error.Message
}

func TestSessionLoginSetsCookie(t *testing.T) {
	sessions := &stubSessions{}
	handler := SessionLogin(stubAuthenticator{user: &users.UserDTO{ID: 7, Email: "a@b.co"}}, sessions, sessionCfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(`{"email":"a@b.co","password":"pw"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if sessions.created != 7 {
		t.Fatalf("expected session for user 7, got %d", sessions.created)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sf" || c.Value != "sid.secret" || !c.HttpOnly || !c.Secure || c.MaxAge != 7200 {
		t.Fatalf("unexpected cookie %+v", c)
	}

	var info types.SessionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !info.Authenticated || info.UserID != 7 {
		t.Fatalf("unexpected session info %+v", info)
	}
}

func TestSessionLoginRejectsBadBody(t *testing.T) {
	handler := SessionLogin(stubAuthenticator{}, &stubSessions{}, sessionCfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(`{"email":"not-an-email","password":"pw"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if code, msg := decodeErrorCode(t, rec); code != string(pkgerrors.CodeValidation) || msg != "email must be a valid email" {
		t.Fatalf("unexpected error %s %q", code, msg)
	}
}

func TestSessionShowAnonymousIs401(t *testing.T) {
	rec := httptest.NewRecorder()
	SessionShow(stubAuthenticator{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestSessionLogoutRevokesAndExpiresCookie(t *testing.T) {
	sessions := &stubSessions{}
	req := httptest.NewRequest(http.MethodDelete, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: "sf", Value: "sid.secret"})
	rec := httptest.NewRecorder()
	SessionLogout(sessions, sessionCfg, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if sessions.revoked != "sid.secret" {
		t.Fatalf("expected token revoked, got %q", sessions.revoked)
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", c)
	}
}

func TestCartHandlersRequireUser(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCartUpdateParsesPathAndBody(t *testing.T) {
	svc := &stubCartService{resp: &types.CartResponse{ItemsCount: 3, FormattedTotal: "$60"}}
	r := chi.NewRouter()
	r.Put("/cart/items/{itemId}", CartUpdateItem(svc, nil))

	req := httptest.NewRequest(http.MethodPut, "/cart/items/12", strings.NewReader(`{"quantity":3}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUser != 5 || svc.lastItem != 12 || svc.lastQuantity != 3 {
		t.Fatalf("unexpected call %+v", svc)
	}

	req = httptest.NewRequest(http.MethodPut, "/cart/items/abc", strings.NewReader(`{"quantity":3}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/cart/items/12", strings.NewReader(`{"quantity":0}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if code, msg := decodeErrorCode(t, rec); code != string(pkgerrors.CodeValidation) || msg != "quantity must be at least 1" {
		t.Fatalf("unexpected error %s %q", code, msg)
	}
}

func TestCartServiceErrorsPassThrough(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "Insufficient stock. Only 2 available")}
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"product_id":1,"quantity":5}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if _, msg := decodeErrorCode(t, rec); msg != "Insufficient stock. Only 2 available" {
		t.Fatalf("unexpected message %q", msg)
	}
}
