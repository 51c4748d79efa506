// Package testutil provides an in-process fake of the ZamaniVault
// backend for exercising the gateway and session manager end to end.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zamanivault/zamanivault-go/domain/auth"
)

// SeededPassword is the password every seeded account accepts.
const SeededPassword = "password123"

type fakeUser struct {
	identity auth.Identity
	password string
}

// FakeBackend is an httptest-backed stand-in for the real API. It
// implements the auth, profile, content, and analytics endpoints with
// deterministic data and exposes call counters and failure knobs.
type FakeBackend struct {
	Server *httptest.Server

	// Request counters, readable while the server is live.
	LoginCalls    atomic.Int64
	RegisterCalls atomic.Int64
	RefreshCalls  atomic.Int64
	ProfileCalls  atomic.Int64
	ContentCalls  atomic.Int64

	// FailRefresh makes the refresh endpoint reject every exchange.
	FailRefresh atomic.Bool

	// RefreshDelay stalls each refresh exchange, to widen race windows.
	RefreshDelay time.Duration

	mu           sync.Mutex
	users        map[string]*fakeUser
	validAccess  map[string]string // token -> email
	validRefresh map[string]string
	tokenSeq     int
	healthStatus string
}

// NewFakeBackend starts a fake backend seeded with the two stock
// accounts: user@example.com (role user, free tier) and
// admin@example.com (role admin, premium tier).
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		users:        make(map[string]*fakeUser),
		validAccess:  make(map[string]string),
		validRefresh: make(map[string]string),
		healthStatus: "ok",
	}
	fb.seed(auth.Identity{
		ID: "1", Name: "Test User", Email: "user@example.com",
		Role: auth.RoleUser, Subscription: auth.TierFree,
		CreatedAt: "2024-01-15T00:00:00Z",
	})
	fb.seed(auth.Identity{
		ID: "2", Name: "Admin User", Email: "admin@example.com",
		Role: auth.RoleAdmin, Subscription: auth.TierPremium,
		CreatedAt: "2024-01-01T00:00:00Z",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", fb.handleLogin)
	mux.HandleFunc("POST /auth/register", fb.handleRegister)
	mux.HandleFunc("POST /auth/token/refresh", fb.handleRefresh)
	mux.HandleFunc("GET /health", fb.handleHealth)
	mux.HandleFunc("GET /user/profile", fb.handleProfileGet)
	mux.HandleFunc("PUT /user/profile", fb.handleProfilePut)
	mux.HandleFunc("GET /user/subscription", fb.handleSubscription)
	mux.HandleFunc("GET /user/history", fb.handleHistory)
	mux.HandleFunc("GET /content", fb.handleContent)
	mux.HandleFunc("GET /content/featured", fb.handleContentFeatured)
	mux.HandleFunc("GET /content/search", fb.handleContentSearch)
	mux.HandleFunc("GET /content/category/{category}", fb.handleContentCategory)
	mux.HandleFunc("GET /content/{id}", fb.handleContentByID)
	mux.HandleFunc("GET /ml/recommendations/{id}", fb.handleRecommendations)
	mux.HandleFunc("GET /ml/trends", fb.handleTrends)
	mux.HandleFunc("GET /ml/segments", fb.handleSegments)
	mux.HandleFunc("GET /ml/reports/{name}", fb.handleReport)

	fb.Server = httptest.NewServer(mux)
	return fb
}

// URL returns the backend base URL.
func (fb *FakeBackend) URL() string { return fb.Server.URL }

// Close shuts the backend down.
func (fb *FakeBackend) Close() { fb.Server.Close() }

func (fb *FakeBackend) seed(id auth.Identity) {
	fb.users[id.Email] = &fakeUser{identity: id, password: SeededPassword}
}

// IssueSession mints a valid access/refresh pair for a seeded account,
// for tests that start from an already-authenticated state.
func (fb *FakeBackend) IssueSession(email string) (access, refresh string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.issueLocked(email)
}

func (fb *FakeBackend) issueLocked(email string) (access, refresh string) {
	fb.tokenSeq++
	access = fmt.Sprintf("access-%d", fb.tokenSeq)
	refresh = fmt.Sprintf("refresh-%d", fb.tokenSeq)
	fb.validAccess[access] = email
	fb.validRefresh[refresh] = email
	return access, refresh
}

// ExpireAccessTokens invalidates every outstanding access token, so the
// next authenticated request draws a 401 and forces a refresh.
func (fb *FakeBackend) ExpireAccessTokens() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.validAccess = make(map[string]string)
}

// RevokeRefreshTokens invalidates every outstanding refresh token.
func (fb *FakeBackend) RevokeRefreshTokens() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.validRefresh = make(map[string]string)
}

// SetHealth overrides the health endpoint's reported status.
func (fb *FakeBackend) SetHealth(status string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.healthStatus = status
}

func (fb *FakeBackend) authenticate(r *http.Request) (string, bool) {
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" || bearer == r.Header.Get("Authorization") {
		return "", false
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	email, ok := fb.validAccess[bearer]
	return email, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (fb *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	fb.LoginCalls.Add(1)
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	fb.mu.Lock()
	user, ok := fb.users[req.Email]
	if !ok || user.password != req.Password {
		fb.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	identity := user.identity
	access, refresh := fb.issueLocked(req.Email)
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"user": identity, "token": access, "refresh": refresh,
	})
}

func (fb *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	fb.RegisterCalls.Add(1)
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	fb.mu.Lock()
	if _, exists := fb.users[req.Email]; exists {
		fb.mu.Unlock()
		writeError(w, http.StatusConflict, "Email already in use")
		return
	}
	fb.tokenSeq++
	identity := auth.Identity{
		ID: fmt.Sprintf("u-%d", fb.tokenSeq), Name: req.Name, Email: req.Email,
		Role: auth.RoleUser, Subscription: auth.TierFree,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	fb.users[req.Email] = &fakeUser{identity: identity, password: req.Password}
	access, refresh := fb.issueLocked(req.Email)
	fb.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": identity, "token": access, "refresh": refresh,
	})
}

func (fb *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	fb.RefreshCalls.Add(1)
	if fb.RefreshDelay > 0 {
		time.Sleep(fb.RefreshDelay)
	}
	if fb.FailRefresh.Load() {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	fb.mu.Lock()
	email, ok := fb.validRefresh[req.Refresh]
	if !ok {
		fb.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	access, _ := fb.issueLocked(email)
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (fb *FakeBackend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	status := fb.healthStatus
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (fb *FakeBackend) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	fb.ProfileCalls.Add(1)
	email, ok := fb.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	fb.mu.Lock()
	identity := fb.users[email].identity
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, identity)
}

func (fb *FakeBackend) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	fb.ProfileCalls.Add(1)
	email, ok := fb.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var upd auth.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	fb.mu.Lock()
	user := fb.users[email]
	user.identity = upd.Apply(user.identity)
	if upd.Email != nil && *upd.Email != email {
		fb.users[*upd.Email] = user
		delete(fb.users, email)
		for token, e := range fb.validAccess {
			if e == email {
				fb.validAccess[token] = *upd.Email
			}
		}
		for token, e := range fb.validRefresh {
			if e == email {
				fb.validRefresh[token] = *upd.Email
			}
		}
	}
	identity := user.identity
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, identity)
}

func (fb *FakeBackend) handleSubscription(w http.ResponseWriter, r *http.Request) {
	email, ok := fb.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	fb.mu.Lock()
	plan := fb.users[email].identity.Subscription
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"plan": plan, "status": "active", "nextBilling": "2026-09-01",
	})
}

func (fb *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := fb.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{
		{"contentId": "c-1", "progress": 0.42, "lastWatched": "2026-08-20T19:00:00Z"},
	})
}

var stockContent = []map[string]any{
	{
		"id": "c-1", "title": "Great Zimbabwe Rising", "description": "Documentary",
		"contentType": "video", "imageUrl": "/img/c1.jpg", "isPremium": false,
		"tags": []string{"history"}, "createdAt": "2024-02-01T00:00:00Z", "updatedAt": "2024-02-01T00:00:00Z",
	},
	{
		"id": "c-2", "title": "Mansa Musa", "description": "Biography",
		"contentType": "book", "imageUrl": "/img/c2.jpg", "isPremium": true,
		"tags": []string{"history", "featured"}, "createdAt": "2024-03-01T00:00:00Z", "updatedAt": "2024-03-01T00:00:00Z",
	},
}

func (fb *FakeBackend) handleContent(w http.ResponseWriter, _ *http.Request) {
	fb.ContentCalls.Add(1)
	writeJSON(w, http.StatusOK, stockContent)
}

func (fb *FakeBackend) handleContentFeatured(w http.ResponseWriter, _ *http.Request) {
	fb.ContentCalls.Add(1)
	writeJSON(w, http.StatusOK, stockContent[1:])
}

func (fb *FakeBackend) handleContentByID(w http.ResponseWriter, r *http.Request) {
	fb.ContentCalls.Add(1)
	id := r.PathValue("id")
	for _, item := range stockContent {
		if item["id"] == id {
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	writeError(w, http.StatusNotFound, "content not found")
}

func (fb *FakeBackend) handleContentCategory(w http.ResponseWriter, r *http.Request) {
	fb.ContentCalls.Add(1)
	category := r.PathValue("category")
	var out []map[string]any
	for _, item := range stockContent {
		for _, tag := range item["tags"].([]string) {
			if tag == category {
				out = append(out, item)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (fb *FakeBackend) handleContentSearch(w http.ResponseWriter, r *http.Request) {
	fb.ContentCalls.Add(1)
	q := strings.ToLower(r.URL.Query().Get("q"))
	var out []map[string]any
	for _, item := range stockContent {
		if strings.Contains(strings.ToLower(item["title"].(string)), q) {
			out = append(out, item)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (fb *FakeBackend) handleRecommendations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"contentId": "c-2", "score": 0.91, "reason": "Similar to your watch history"},
	})
}

func (fb *FakeBackend) handleTrends(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"category": "history", "viewCount": 1204, "growthRate": 0.12, "popularity": 0.87},
	})
}

func (fb *FakeBackend) handleSegments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": "s-1", "name": "History buffs", "size": 523, "topInterests": []string{"history", "artifacts"}, "avgSessionDuration": 34.5},
	})
}

func (fb *FakeBackend) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name": r.PathValue("name"),
		"rows": []map[string]any{
			{"category": "history", "views": 1204},
			{"category": "music", "views": 698},
		},
	})
}
