package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-whitelist/core"
)

var fixedNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestRefresher(t *testing.T, server *httptest.Server) *Refresher {
	t.Helper()
	refresher, err := NewRefresher(RefresherConfig{
		TokenURL:   server.URL + "/api/token",
		ClientID:   "client-123",
		Now:        func() time.Time { return fixedNow },
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	return refresher
}

func TestRefresher_PostsRefreshGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("refresh_token") != "refresh-old" {
			t.Errorf("unexpected refresh token %q", r.PostForm.Get("refresh_token"))
		}
		if r.PostForm.Get("client_id") != "client-123" {
			t.Errorf("unexpected client id %q", r.PostForm.Get("client_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-new","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-new","scope":"user-read-email"}`))
	}))
	defer server.Close()

	token, err := newTestRefresher(t, server).Refresh(context.Background(), core.Token{
		AccessToken:  "access-old",
		TokenType:    "Bearer",
		RefreshToken: "refresh-old",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token.AccessToken != "access-new" || token.RefreshToken != "refresh-new" {
		t.Fatalf("unexpected token %+v", token)
	}
	if token.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", token.ExpiresIn)
	}
	if !token.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("expected expiry from injected clock, got %s", token.ExpiresAt)
	}
}

func TestRefresher_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-new","expires_in":60}`))
	}))
	defer server.Close()

	token, err := newTestRefresher(t, server).Refresh(context.Background(), core.Token{
		TokenType:    "Bearer",
		RefreshToken: "refresh-keep",
		Scope:        "user-read-email",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token.RefreshToken != "refresh-keep" || token.TokenType != "Bearer" || token.Scope != "user-read-email" {
		t.Fatalf("expected previous values carried over, got %+v", token)
	}
}

func TestRefresher_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"error status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token revoked"}`))
		},
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"malformed body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"missing access token": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"expires_in":3600}`))
		},
		"missing expiry": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"access_token":"a"}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				handler(w, r)
			}))
			defer server.Close()

			_, err := newTestRefresher(t, server).Refresh(context.Background(), core.Token{RefreshToken: "r"})
			if err == nil {
				t.Fatalf("expected refresh failure")
			}
			if calls.Load() != 1 {
				t.Fatalf("expected exactly one attempt, got %d", calls.Load())
			}
		})
	}
}

func TestRefresher_ErrorIncludesDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token revoked"}`))
	}))
	defer server.Close()

	_, err := newTestRefresher(t, server).Refresh(context.Background(), core.Token{RefreshToken: "r"})
	if err == nil || !strings.Contains(err.Error(), "Refresh token revoked") {
		t.Fatalf("expected endpoint description in error, got %v", err)
	}
}

func TestRefresher_RequiresRefreshToken(t *testing.T) {
	refresher, err := NewRefresher(RefresherConfig{TokenURL: "http://127.0.0.1:0", ClientID: "c"})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	if _, err := refresher.Refresh(context.Background(), core.Token{}); err == nil {
		t.Fatalf("expected missing refresh token error")
	}
	if _, err := NewRefresher(RefresherConfig{ClientID: "c"}); err == nil {
		t.Fatalf("expected missing token url error")
	}
	if _, err := NewRefresher(RefresherConfig{TokenURL: "http://x"}); err == nil {
		t.Fatalf("expected missing client id error")
	}
}
