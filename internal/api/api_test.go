package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/archive"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/ratelimit"
)

const (
	testDomain        = "inst.edu"
	testAdminPassword = "admin-secret"
	testReceiptSecret = "test-secret"
)

type testServer struct {
	*httptest.Server
	DB *sql.DB
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)

	if _, err := auth.EnsureAdminSecret(context.Background(), database, testAdminPassword); err != nil {
		t.Fatalf("EnsureAdminSecret: %v", err)
	}

	limiter := ratelimit.NewMemoryLimiter(3, time.Minute)
	t.Cleanup(limiter.Stop)

	router := NewRouter(Config{
		DB:            database,
		EmailDomain:   testDomain,
		AdminEmail:    "admin@university.edu",
		ReceiptSecret: testReceiptSecret,
		Limiter:       limiter,
		Sweeper:       archive.NewSweeper(database, 0),
		AllowOrigins:  []string{"http://localhost:5173"},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, DB: database}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (s *testServer) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) createItem(t *testing.T, name string) model.FoundItem {
	t.Helper()
	var item model.FoundItem
	status := s.do(t, "POST", "/api/items", map[string]string{
		"name":        name,
		"description": "Found on a chair",
		"building":    "Library",
		"dateFound":   "2024-03-01",
	}, &item)
	if status != http.StatusCreated {
		t.Fatalf("create item: expected 201, got %d", status)
	}
	return item
}

func (s *testServer) createClaim(t *testing.T, itemID string) createClaimResponse {
	t.Helper()
	var resp createClaimResponse
	status := s.do(t, "POST", "/api/claims", claimBody(itemID), &resp)
	if status != http.StatusCreated {
		t.Fatalf("create claim: expected 201, got %d", status)
	}
	return resp
}

func claimBody(itemID string) map[string]string {
	return map[string]string{
		"itemId":           itemID,
		"claimerName":      "Alice",
		"claimerEmail":     "alice@inst.edu",
		"lastSeenBuilding": "Library",
		"ownershipDetails": "has my initials on the tag",
		"claimDate":        "2024-03-02",
	}
}

func TestEndToEndClaimFlow(t *testing.T) {
	s := setupTestServer(t)

	var alice model.User
	status := s.do(t, "POST", "/api/users/register", map[string]string{
		"name": "Alice", "email": "alice@inst.edu", "password": "password123",
	}, &alice)
	if status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", status)
	}

	item := s.createItem(t, "Blue Backpack")

	body := claimBody(item.ID)
	body["claimedBy"] = alice.ID
	var created createClaimResponse
	if status := s.do(t, "POST", "/api/claims", body, &created); status != http.StatusCreated {
		t.Fatalf("create claim: expected 201, got %d", status)
	}
	if created.Status != model.ClaimStatusPending {
		t.Errorf("expected pending claim, got %q", created.Status)
	}

	var admin model.UserSummary
	if status := s.do(t, "POST", "/api/users/admin-login", map[string]string{"password": testAdminPassword}, &admin); status != http.StatusOK {
		t.Fatalf("admin login: expected 200, got %d", status)
	}

	status = s.do(t, "PUT", "/api/claims/"+created.ID+"/resolve", map[string]string{"resolvedBy": admin.ID}, nil)
	if status != http.StatusNoContent {
		t.Fatalf("resolve: expected 204, got %d", status)
	}

	var pending []model.Claim
	s.do(t, "GET", "/api/claims/pending", nil, &pending)
	for _, c := range pending {
		if c.ID == created.ID {
			t.Error("resolved claim still listed as pending")
		}
	}

	var all []model.Claim
	s.do(t, "GET", "/api/claims", nil, &all)
	found := false
	for _, c := range all {
		if c.ID == created.ID {
			found = true
			if c.Status != model.ClaimStatusResolved {
				t.Errorf("expected resolved status, got %q", c.Status)
			}
			if c.Item == nil || c.Item.Name != "Blue Backpack" {
				t.Errorf("expected item populated, got %+v", c.Item)
			}
		}
	}
	if !found {
		t.Error("resolved claim missing from claim list")
	}

	var detail model.Claim
	s.do(t, "GET", "/api/claims/"+created.ID, nil, &detail)
	if detail.ClaimedByUser == nil || detail.ClaimedByUser.Email != "alice@inst.edu" {
		t.Errorf("expected claimant populated, got %+v", detail.ClaimedByUser)
	}
	if detail.ResolvedByUser == nil || detail.ResolvedByUser.ID != admin.ID {
		t.Errorf("expected resolver populated, got %+v", detail.ResolvedByUser)
	}

	// A second resolve is rejected.
	status = s.do(t, "PUT", "/api/claims/"+created.ID+"/resolve", nil, nil)
	if status != http.StatusConflict {
		t.Errorf("second resolve: expected 409, got %d", status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(s.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestCORS(t *testing.T) {
	s := setupTestServer(t)

	req, _ := http.NewRequest("OPTIONS", s.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}

	req, _ = http.NewRequest("GET", s.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}
