package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dtcteamcrm/internal/domain/user"
)

func TestSessionStore(t *testing.T) {
	ss := NewSessionStore()

	token, err := ss.Create("u-1", "owner@dtcteam.io", user.RoleOwner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	sess, ok := ss.Get(token)
	if !ok {
		t.Fatal("session not found after Create")
	}
	if sess.UserID != "u-1" || sess.Role != user.RoleOwner {
		t.Errorf("session = %+v", sess)
	}

	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("session still readable after Delete")
	}

	if _, ok := ss.Get("not-a-token"); ok {
		t.Error("unknown token resolved to a session")
	}
}

func TestSessionStore_ExpiredSessionIsReaped(t *testing.T) {
	ss := NewSessionStore()
	token, err := ss.Create("u-1", "owner@dtcteam.io", user.RoleOwner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Age the session past the 24h lifetime.
	ss.mu.Lock()
	sess := ss.sessions[token]
	sess.CreatedAt = time.Now().Add(-25 * time.Hour)
	ss.sessions[token] = sess
	ss.mu.Unlock()

	// Concurrent lookups of an expired token must not race on the map.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := ss.Get(token); ok {
				t.Error("expired session resolved")
			}
		}()
	}
	wg.Wait()

	ss.mu.RLock()
	_, still := ss.sessions[token]
	ss.mu.RUnlock()
	if still {
		t.Error("expired session left in the store")
	}
}

func TestRequireRole(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := RequireRole(user.RoleOwner)(http.HandlerFunc(ok))

	cases := []struct {
		name string
		role string
		want int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"wrong role", user.RoleCoach, http.StatusForbidden},
		{"matching role", user.RoleOwner, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.role != "" {
				req = req.WithContext(ContextWithSession(req.Context(), Session{UserID: "u-1", Role: tc.role}))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request in the window should be limited")
	}
	// Another IP has its own bucket
	if !rl.Allow("5.6.7.8") {
		t.Error("separate IP should not share the bucket")
	}
}
