package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dberezin/ipotrack/internal/logging"
	"github.com/dberezin/ipotrack/internal/server/auth"
	"github.com/dberezin/ipotrack/internal/server/config"
	"github.com/dberezin/ipotrack/internal/server/repositories/repomanager"
	"github.com/dberezin/ipotrack/internal/server/services"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		SecretKey:             testSecret,
		TokenValidityDuration: 24 * time.Hour,
	}
	m := repomanager.NewInMemoryRepositoryManager()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	srv := NewServer(":0", logger,
		services.NewUserService(nil, m, cfg),
		services.NewApplicationService(nil, m, cfg),
		cfg.SecretKey)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, body)
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	return resp, decoded
}

func credentials(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	// register
	resp, body := postJSON(t, ts.URL+"/api/auth/register", "", credentials("a@x.com", "secret1"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["message"] != "User registered successfully" {
		t.Errorf("unexpected register message: %v", body["message"])
	}
	user, ok := body["user"].(map[string]any)
	if !ok || user["id"] == "" || user["email"] != "a@x.com" {
		t.Fatalf("unexpected register user: %v", body["user"])
	}
	registerID := user["id"].(string)
	if body["token"] == "" {
		t.Fatal("register returned no token")
	}

	// login with the same credentials yields the same account
	resp, body = postJSON(t, ts.URL+"/api/auth/login", "", credentials("a@x.com", "secret1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["message"] != "Login successful" {
		t.Errorf("unexpected login message: %v", body["message"])
	}
	loginUser := body["user"].(map[string]any)
	if loginUser["id"] != registerID {
		t.Errorf("login returned id %v, register returned %v", loginUser["id"], registerID)
	}

	// the token's subject is the account id
	token := body["token"].(string)
	subject, err := auth.GetUserIDFromToken(token, []byte(testSecret))
	if err != nil {
		t.Fatalf("login token does not verify: %v", err)
	}
	if subject != registerID {
		t.Errorf("token subject = %q, want %q", subject, registerID)
	}

	// wrong password
	resp, body = postJSON(t, ts.URL+"/api/auth/login", "", credentials("a@x.com", "wrong"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", resp.StatusCode)
	}
	if body["message"] != "Invalid password" {
		t.Errorf("unexpected message: %v", body["message"])
	}

	// unknown email
	resp, body = postJSON(t, ts.URL+"/api/auth/login", "", credentials("b@x.com", "secret1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown email: expected 404, got %d", resp.StatusCode)
	}
	if body["message"] != "User not found" {
		t.Errorf("unexpected message: %v", body["message"])
	}

	// duplicate registration
	resp, body = postJSON(t, ts.URL+"/api/auth/register", "", credentials("a@x.com", "other"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate register: expected 400, got %d", resp.StatusCode)
	}
	if body["message"] != "User already exists" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"no email", credentials("", "secret1")},
		{"no password", credentials("a@x.com", "")},
		{"empty body", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, ts.URL+"/api/auth/register", "", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			if body["message"] != "Email and password are required" {
				t.Errorf("unexpected message: %v", body["message"])
			}
		})
	}
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/api/auth/register", "", credentials("a@x.com", "secret1"))
	token := body["token"].(string)
	id := body["user"].(map[string]any)["id"]

	resp, me := doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, me)
	}
	if me["id"] != id || me["email"] != "a@x.com" {
		t.Errorf("unexpected profile: %v", me)
	}
}

func TestProtectedRoutes_RejectBadTokens(t *testing.T) {
	ts := newTestServer(t)

	expired, err := auth.GenerateToken("someone", []byte(testSecret), -time.Minute)
	if err != nil {
		t.Fatalf("generating expired token: %v", err)
	}
	forged, err := auth.GenerateToken("someone", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("generating forged token: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"missing", "", "Missing token"},
		{"malformed", "not-a-jwt", "Invalid token"},
		{"forged", forged, "Invalid token"},
		{"expired", expired, "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", tt.token, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
			if body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestApplications_CreateAndList(t *testing.T) {
	ts := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/api/auth/register", "", credentials("a@x.com", "secret1"))
	token := body["token"].(string)

	resp, app := postJSON(t, ts.URL+"/api/applications", token, map[string]any{
		"companyName":   "Acme Robotics",
		"companySymbol": "ACME",
		"issueSize":     1000000,
		"pricePerShare": 20,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, app)
	}
	if app["status"] != "Pending" {
		t.Errorf("status = %v, want Pending", app["status"])
	}
	if app["totalShares"] != float64(50000) {
		t.Errorf("totalShares = %v, want 50000", app["totalShares"])
	}

	// the list is scoped to the owner
	_, other := postJSON(t, ts.URL+"/api/auth/register", "", credentials("b@x.com", "secret2"))
	otherToken := other["token"].(string)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/applications", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	defer listResp.Body.Close()

	var list []map[string]any
	if err := json.NewDecoder(listResp.Body).Decode(&list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("other user's list has %d entries, want 0", len(list))
	}
}

func TestApplications_InvalidInput(t *testing.T) {
	ts := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/api/auth/register", "", credentials("a@x.com", "secret1"))
	token := body["token"].(string)

	resp, _ := postJSON(t, ts.URL+"/api/applications", token, map[string]any{"companyName": "Acme"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDocumentRoutes_UnknownApplication(t *testing.T) {
	ts := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/api/auth/register", "", credentials("a@x.com", "secret1"))
	token := body["token"].(string)

	url := fmt.Sprintf("%s/api/applications/%s/document", ts.URL, "no-such-id")

	resp, _ := postJSON(t, url, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("upload: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, url, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("download: expected 404, got %d", resp.StatusCode)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/auth/register", bytes.NewBufferString(`{}`))
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}

	// generated when absent
	resp2, _ := postJSON(t, ts.URL+"/api/auth/register", "", credentials("", ""))
	if resp2.Header.Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}
}
