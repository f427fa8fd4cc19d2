package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andrewtheguy/s3browser-sub000/internal/session"
	"github.com/andrewtheguy/s3browser-sub000/pkg/api/middleware"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

func newTestServices(seedEnabled bool) *services.Services {
	return &services.Services{
		Sessions:             session.New("correct-password"),
		SeedTestItemsEnabled: seedEnabled,
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(newTestServices(false), APIConfig{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router := NewRouter(newTestServices(false), APIConfig{})

	body, _ := json.Marshal(map[string]string{"password": "nope"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	router := NewRouter(newTestServices(false), APIConfig{})

	body, _ := json.Marshal(map[string]string{"password": "correct-password"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "s3browser_session" {
		t.Fatalf("expected one s3browser_session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestSessionStatusWithoutCookieReportsNotOK(t *testing.T) {
	router := NewRouter(newTestServices(false), APIConfig{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 (OptionalSessionAuth never rejects), got %d", rr.Code)
	}

	var status struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.OK {
		t.Error("expected ok=false with no session cookie")
	}
}

func TestObjectsRouteRequiresSession(t *testing.T) {
	router := NewRouter(newTestServices(false), APIConfig{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/objects/1/my-bucket", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rr.Code)
	}
}

func TestSeedTestItemsRouteAbsentByDefault(t *testing.T) {
	svc := newTestServices(false)
	router := NewRouter(svc, APIConfig{})

	// The session and binding middlewares wrap the whole objects mount, so
	// the request must pass them before a missing route can answer 404.
	sess, err := svc.Sessions.Login("correct-password")
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	if err := svc.Sessions.BindConnection(sess.ID, 1); err != nil {
		t.Fatalf("binding connection: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/objects/1/my-bucket/seed-test-items", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: sess.ID})
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected seed-test-items route to not exist (404), got %d", rr.Code)
	}
}

func TestSeedTestItemsRoutePresentWhenEnabled(t *testing.T) {
	svc := newTestServices(true)
	router := NewRouter(svc, APIConfig{})

	sess, err := svc.Sessions.Login("correct-password")
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	if err := svc.Sessions.BindConnection(sess.ID, 1); err != nil {
		t.Fatalf("binding connection: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/objects/1/my-bucket/seed-test-items", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: sess.ID})
	router.ServeHTTP(rr, req)

	// Authenticated and bound, so the request reaches the handler, whose
	// body validation rejects the empty body — that 400 (not 404) proves
	// the route is registered.
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 (route exists, empty body rejected), got %d", rr.Code)
	}
}

func loggedInCookie(t *testing.T, svc *services.Services) *http.Cookie {
	t.Helper()
	sess, err := svc.Sessions.Login("correct-password")
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	return &http.Cookie{Name: middleware.CookieName, Value: sess.ID}
}

func TestObjectsRouteRejectsUnboundSession(t *testing.T) {
	svc := newTestServices(false)
	router := NewRouter(svc, APIConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/objects/1/my-bucket", nil)
	req.AddCookie(loggedInCookie(t, svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a session with no bound connection, got %d", rr.Code)
	}
}

func TestObjectsRouteRejectsMismatchedConnection(t *testing.T) {
	svc := newTestServices(false)
	router := NewRouter(svc, APIConfig{})

	sess, err := svc.Sessions.Login("correct-password")
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	if err := svc.Sessions.BindConnection(sess.ID, 2); err != nil {
		t.Fatalf("binding connection: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/objects/1/my-bucket", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: sess.ID})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when the bound connection (2) differs from the path's connId (1), got %d", rr.Code)
	}
}

func TestBucketsRouteAllowsMatchingBoundConnection(t *testing.T) {
	svc := newTestServices(false)
	router := NewRouter(svc, APIConfig{})

	sess, err := svc.Sessions.Login("correct-password")
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	if err := svc.Sessions.BindConnection(sess.ID, 1); err != nil {
		t.Fatalf("binding connection: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/buckets/1", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: sess.ID})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// svc.Vault is nil in this fixture, so the request reaches past binding
	// enforcement and fails deeper in the handler (the recovered panic
	// answers 500); only a 403 would mean the binding check itself rejected
	// a matching connection.
	if rr.Code == http.StatusForbidden {
		t.Fatalf("expected the binding check to pass for a matching connection, got 403")
	}
}
