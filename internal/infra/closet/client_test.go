package closet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/averios/go-style-studio/internal/session"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

// newBackend spins up a stub closet server that records the last request and
// answers with the given status and payload.
func newBackend(t *testing.T, status int, payload string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.body = nil
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.WriteHeader(status)
		if payload != "" {
			w.Write([]byte(payload))
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second), rec
}

func TestFetch(t *testing.T) {
	payload := `[{"product_id":"p-1","title":"Coat","image_url":"http://img/p-1","created_at":"2026-08-01T10:00:00Z"}]`
	c, rec := newBackend(t, http.StatusOK, payload)

	items, err := c.Fetch(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != "p-1" || items[0].Title != "Coat" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].SavedAt.IsZero() {
		t.Fatal("created_at must map to SavedAt")
	}
	if rec.method != http.MethodGet || rec.path != "/v1/closet" || rec.auth != "Bearer tok-1" {
		t.Fatalf("unexpected request: %+v", rec)
	}
}

func TestAddAndRemove(t *testing.T) {
	c, rec := newBackend(t, http.StatusNoContent, "")

	if err := c.Add(context.Background(), "tok-1", "p-9"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.method != http.MethodPost || rec.body["product_id"] != "p-9" {
		t.Fatalf("unexpected add request: %+v", rec)
	}

	if err := c.Remove(context.Background(), "tok-1", []string{"p-1", "p-2"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ids, _ := rec.body["product_ids"].([]any)
	if rec.method != http.MethodDelete || len(ids) != 2 {
		t.Fatalf("unexpected remove request: %+v", rec)
	}
}

func TestMutationFailureStatus(t *testing.T) {
	c, _ := newBackend(t, http.StatusConflict, "")
	if err := c.Add(context.Background(), "tok-1", "p-1"); err == nil {
		t.Fatal("4xx must surface as an error")
	}
}

func TestValidate(t *testing.T) {
	t.Run("definitive rejection", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			c, _ := newBackend(t, status, "")
			err := c.Validate(context.Background(), "tok-1")
			if !errors.Is(err, session.ErrUnauthorized) {
				t.Fatalf("status %d must map to ErrUnauthorized, got %v", status, err)
			}
		}
	})

	t.Run("server error stays advisory", func(t *testing.T) {
		c, _ := newBackend(t, http.StatusInternalServerError, "")
		err := c.Validate(context.Background(), "tok-1")
		if err == nil || errors.Is(err, session.ErrUnauthorized) {
			t.Fatalf("5xx must be an ordinary error, got %v", err)
		}
	})

	t.Run("network failure stays advisory", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // nothing listens anymore
		c := NewClient(srv.URL, time.Second)
		err := c.Validate(context.Background(), "tok-1")
		if err == nil || errors.Is(err, session.ErrUnauthorized) {
			t.Fatalf("transport failure must be an ordinary error, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		c, rec := newBackend(t, http.StatusNoContent, "")
		if err := c.Validate(context.Background(), "tok-1"); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if rec.path != "/v1/auth/validate" {
			t.Fatalf("unexpected path: %q", rec.path)
		}
	})
}

func TestLogout(t *testing.T) {
	c, rec := newBackend(t, http.StatusNoContent, "")
	if err := c.Logout(context.Background(), "tok-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/v1/auth/logout" {
		t.Fatalf("unexpected request: %+v", rec)
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	c, rec := newBackend(t, http.StatusOK, "[]")
	c.baseURL = c.baseURL + "/" // exercised through NewClient normally
	c2 := NewClient(c.baseURL, time.Second)
	if _, err := c2.Fetch(context.Background(), "tok"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.path != "/v1/closet" {
		t.Fatalf("trailing slash must not double up: %q", rec.path)
	}
}
