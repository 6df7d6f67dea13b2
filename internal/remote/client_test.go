package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julianstephens/hemma/internal/keyring"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/syncer"
)

func staticToken(tok string) TokenSource {
	return func() (string, error) { return tok, nil }
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "trailing slash", raw: "https://sync.example.com/api/", want: "https://sync.example.com/api"},
		{name: "whitespace", raw: "  http://localhost:4000/api ", want: "http://localhost:4000/api"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no scheme", raw: "sync.example.com/api", wantErr: true},
		{name: "unsupported scheme", raw: "ftp://sync.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeBaseURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUploadSendsBearerAndDecodesMerge(t *testing.T) {
	var gotAuth string
	var gotBody models.SyncPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sync/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[{"dayIndex":2,"habitId":"quran","value":5,"updatedAt":"2026-02-20T10:00:00.000Z"}],"categories":null}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", staticToken("tok-123"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	resp, err := c.Upload(context.Background(), models.SyncPayload{
		Entries: []models.SyncEntry{{DayIndex: 2, HabitID: "fajr-prayer", Value: models.Bool(true), UpdatedAt: "2026-02-20T09:00:00.000Z"}},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotBody.Entries) != 1 || gotBody.Categories == nil {
		t.Errorf("request body = %+v, want one entry and empty categories", gotBody)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Value.Count != 5 {
		t.Errorf("response entries = %+v", resp.Entries)
	}
	if resp.Categories == nil {
		t.Error("response categories should be normalized to empty")
	}
}

func TestMissingCredentialIsNoCredential(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tests := []struct {
		name  string
		token TokenSource
	}{
		{name: "nil source", token: nil},
		{name: "empty token", token: staticToken("")},
		{name: "not in keyring", token: func() (string, error) { return "", keyring.ErrNotFound }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(srv.URL, tt.token)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := c.Download(context.Background()); !errors.Is(err, syncer.ErrNoCredential) {
				t.Errorf("Download() error = %v, want ErrNoCredential", err)
			}
		})
	}
	if called {
		t.Error("request sent without a credential")
	}
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		wantMsg   string
		wantUnauth bool
	}{
		{name: "json payload", status: http.StatusUnauthorized, body: `{"error":"unauthorized","message":"token expired"}`, wantCode: "unauthorized", wantMsg: "token expired", wantUnauth: true},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down\n", wantMsg: "upstream down"},
		{name: "validation", status: http.StatusBadRequest, body: `{"error":"invalid_payload","message":"dayIndex out of range"}`, wantCode: "invalid_payload", wantMsg: "dayIndex out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := NewClient(srv.URL, staticToken("tok"))
			_, err := c.Download(context.Background())

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMsg {
				t.Errorf("APIError = %+v", apiErr)
			}
			if IsUnauthorized(err) != tt.wantUnauth {
				t.Errorf("IsUnauthorized() = %v, want %v", IsUnauthorized(err), tt.wantUnauth)
			}
		})
	}
}

func TestLoginDoesNotNeedCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login sent an Authorization header")
		}
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "amina@example.com" || req.Password != "secret" {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"_id":"u1","uid":"u1","name":"Amina","email":"amina@example.com","token":"jwt"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil)
	resp, err := c.Login(context.Background(), "amina@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "jwt" || resp.Name != "Amina" {
		t.Errorf("Login() = %+v", resp)
	}
}

func TestResetAndProfile(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/sync/reset":
			_, _ = w.Write([]byte(`{"message":"reset"}`))
		case "/auth/profile":
			_, _ = w.Write([]byte(`{"_id":"u1","uid":"u1","name":"Yusuf","email":"yusuf@example.com"}`))
		}
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL+"/", staticToken("tok"))
	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	user, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if user.Email != "yusuf@example.com" {
		t.Errorf("Profile() = %+v", user)
	}
	if len(methods) != 2 || methods[0] != "DELETE /sync/reset" || methods[1] != "GET /auth/profile" {
		t.Errorf("requests = %v", methods)
	}
}
