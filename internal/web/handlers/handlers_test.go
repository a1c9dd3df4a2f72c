package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"

	"github.com/kringle-dev/kringle/config"
	"github.com/kringle-dev/kringle/internal/database"
	"github.com/kringle-dev/kringle/internal/events"
	"github.com/kringle-dev/kringle/internal/lifecycle"
	"github.com/kringle-dev/kringle/internal/matching"
	"github.com/kringle-dev/kringle/pkg/models"
)

const testSecret = "test-secret"

func testServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "handlers-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := database.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		DB:     config.DBConfig{Path: tmpFile.Name()},
		Auth:   config.AuthConfig{JWTSecret: testSecret, Issuer: "kringle-auth"},
	}

	matcher := matching.New(db)
	lc := lifecycle.New(db, events.Nop{})
	h := New(db, cfg, matcher, lc)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(AdminMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
		r.Get("/matches", h.ListMatches)
		r.Post("/matches", h.AssignSanta)
		r.Post("/matches/auto", h.AutoMatch)
		r.Post("/matches/publish", h.PublishMatches)
		r.Delete("/matches/drafts", h.DeleteDrafts)
		r.Post("/matches/{id}/reassign", h.Reassign)
		r.Post("/matches/{id}/deactivate", h.DeactivateMatch)
		r.Post("/matches/{id}/sorted", h.MarkSorted)
		r.Post("/matches/{id}/contacted", h.MarkContacted)
		r.Get("/players", h.ListPlayers)
		r.Get("/players/{handle}", h.GetPlayer)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, db
}

func signToken(t *testing.T, roles []string, issuer string) string {
	t.Helper()
	claims := &AdminClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func doRequest(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func seedTestPlayer(t *testing.T, db *database.DB, id, handle string, status models.CapacityStatus) {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	p := &models.Player{
		ID: id, Handle: handle, SignupComplete: true,
		GameMode: models.ModeRegular, MaxGiftees: 2,
		CapacityStatus: status,
		CreatedAt:      now, UpdatedAt: now,
	}
	if err := db.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("CreatePlayer(%s): %v", handle, err)
	}
}

func TestAdminMiddleware_RejectsMissingToken(t *testing.T) {
	srv, _ := testServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/matches", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminMiddleware_RejectsNonAdminRole(t *testing.T) {
	srv, _ := testServer(t)
	token := signToken(t, []string{"user"}, "kringle-auth")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/matches", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminMiddleware_RejectsWrongIssuer(t *testing.T) {
	srv, _ := testServer(t)
	token := signToken(t, []string{"admin"}, "someone-else")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/matches", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAutoMatch_PreconditionFailed(t *testing.T) {
	srv, db := testServer(t)
	token := signToken(t, []string{"admin"}, "kringle-auth")

	// Four giftee candidates is one short of the minimum.
	for _, id := range []string{"g1", "g2", "g3", "g4"} {
		seedTestPlayer(t, db, id, id, models.CapacityCanHaveMore)
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/matches/auto", token, map[string]int{})
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Errorf("status = %d, want 412", resp.StatusCode)
	}

	matches, err := db.ListMatches(context.Background(), database.MatchFilter{})
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches written = %d, want 0", len(matches))
	}
}

func TestAssignPublishDeactivateFlow(t *testing.T) {
	srv, db := testServer(t)
	token := signToken(t, []string{"admin"}, "kringle-auth")

	seedTestPlayer(t, db, "g1", "giftee1", models.CapacityCanHaveMore)
	seedTestPlayer(t, db, "s1", "santa1", models.CapacityCanHaveMore)

	// Create.
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/matches", token, map[string]string{
		"giftee_id":    "g1",
		"santa_handle": "santa1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign status = %d, want 201", resp.StatusCode)
	}
	var created models.Match
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created match: %v", err)
	}
	if created.Status != models.MatchStatusDraft {
		t.Errorf("created status = %q, want draft", created.Status)
	}

	// Publish draft -> shared.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/matches/publish", token, map[string]string{
		"from": "draft", "to": "shared",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d, want 200", resp.StatusCode)
	}
	var pubResult map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&pubResult); err != nil {
		t.Fatalf("decode publish result: %v", err)
	}
	if pubResult["published"] != 1 {
		t.Errorf("published = %d, want 1", pubResult["published"])
	}

	// Deactivate.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/matches/"+created.ID+"/deactivate", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate status = %d, want 200", resp.StatusCode)
	}

	// Active list is now empty.
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/matches?active=true", token, nil)
	var active []models.MatchWithPlayers
	if err := json.NewDecoder(resp.Body).Decode(&active); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active matches = %d, want 0", len(active))
	}
}

func TestReassign_ConflictStatus(t *testing.T) {
	srv, db := testServer(t)
	token := signToken(t, []string{"admin"}, "kringle-auth")

	seedTestPlayer(t, db, "g1", "giftee1", models.CapacityCanHaveMore)
	seedTestPlayer(t, db, "s1", "santa1", models.CapacityCanHaveMore)
	seedTestPlayer(t, db, "s2", "santa2", models.CapacityFull)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/matches", token, map[string]string{
		"giftee_id": "g1", "santa_handle": "santa1",
	})
	var created models.Match
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created match: %v", err)
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/matches/"+created.ID+"/reassign", token, map[string]interface{}{
		"santa_handle": "santa2",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestReassign_NotFoundStatus(t *testing.T) {
	srv, db := testServer(t)
	token := signToken(t, []string{"admin"}, "kringle-auth")

	seedTestPlayer(t, db, "s1", "santa1", models.CapacityCanHaveMore)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/matches/missing/reassign", token, map[string]interface{}{
		"santa_handle": "santa1",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetPlayer(t *testing.T) {
	srv, db := testServer(t)
	token := signToken(t, []string{"admin"}, "kringle-auth")

	seedTestPlayer(t, db, "p1", "alice", models.CapacityCanHaveMore)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/players/alice", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var p models.Player
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode player: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("ID = %q, want p1", p.ID)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/players/nobody", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing player status = %d, want 404", resp.StatusCode)
	}
}
