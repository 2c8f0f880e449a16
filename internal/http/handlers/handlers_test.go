// README: Integration tests for route guards and status routing.
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zabiza830/Ethio-Safeguard/internal/auth"
	apihttp "github.com/zabiza830/Ethio-Safeguard/internal/http"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/dispatch"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/registry"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/ws"
)

// stubVerifier is a test double for auth.TokenVerifier.
type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s *stubVerifier) Verify(_ string) (*auth.Claims, error) {
	return s.claims, s.err
}

func makeVerifier(userID, role string) *stubVerifier {
	return &stubVerifier{claims: &auth.Claims{UserID: userID, Role: role}}
}

// buildTestRouter wires the full route table. Services are constructed with
// nil stores; every request under test is rejected by middleware or handler
// validation before any store call.
func buildTestRouter(verifier auth.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	userSvc := user.NewService(nil, nil, nil)
	dispatchSvc := dispatch.NewService(nil, nil, nil, nil)
	notifySvc := notify.NewService(nil, nil)
	wsHandler := ws.NewHandler(ws.NewHub(), registry.New(nil), verifier)
	return apihttp.NewRouter(apihttp.RouterDeps{
		Users:    userSvc,
		Dispatch: dispatchSvc,
		Notify:   notifySvc,
		WS:       wsHandler,
		Verifier: verifier,
	})
}

func doRequest(r *gin.Engine, method, path string, body any, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMissingAuthHeader(t *testing.T) {
	r := buildTestRouter(makeVerifier("u1", "SENDER"))
	for _, path := range []string{"/api/aid/available", "/api/users/registrations", "/api/notifications"} {
		w := doRequest(r, http.MethodGet, path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestInvalidToken(t *testing.T) {
	r := buildTestRouter(&stubVerifier{err: errors.New("invalid or expired token")})
	w := doRequest(r, http.MethodGet, "/api/notifications", nil, "Bearer badtoken")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRegistrationsRequireAdmin(t *testing.T) {
	r := buildTestRouter(makeVerifier("s1", "SENDER"))
	w := doRequest(r, http.MethodGet, "/api/users/registrations", nil, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	w = doRequest(r, http.MethodPatch, "/api/users/registrations/u1", map[string]any{"status": "APPROVED"}, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreateAidRequiresSender(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "DRIVER"))
	w := doRequest(r, http.MethodPost, "/api/aid", map[string]any{
		"driverId": "d1", "aidType": "Food", "quantity": "10", "destination": "Adama", "urgency": "High",
	}, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestAvailableListingRequiresDriver(t *testing.T) {
	r := buildTestRouter(makeVerifier("s1", "SENDER"))
	w := doRequest(r, http.MethodGet, "/api/aid/available", nil, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestSenderListingRequiresSender(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "DRIVER"))
	w := doRequest(r, http.MethodGet, "/api/aid/sender", nil, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestAcceptRequiresDriverRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("s1", "SENDER"))
	w := doRequest(r, http.MethodPatch, "/api/aid/r1/status", map[string]any{"status": "ACCEPTED"}, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCompleteRequiresDriverRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("s1", "SENDER"))
	w := doRequest(r, http.MethodPatch, "/api/aid/r1/status", map[string]any{"status": "COMPLETED"}, "Bearer t")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestUpdateStatusRejectsUnknownTarget(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "DRIVER"))
	w := doRequest(r, http.MethodPatch, "/api/aid/r1/status", map[string]any{"status": "PENDING"}, "Bearer t")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpdateStatusRejectsBadJSON(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "DRIVER"))
	req := httptest.NewRequest(http.MethodPatch, "/api/aid/r1/status", bytes.NewBufferString("{nope"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := buildTestRouter(makeVerifier("u1", "SENDER"))
	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
