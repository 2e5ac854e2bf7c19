package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hearthstone-io/hearthscout/internal/adapters/fetch"
)

// noSleep makes retries instantaneous in tests.
func noSleep(ctx context.Context, d time.Duration) bool { return ctx.Err() == nil }

func testClient() *fetch.Client {
	return fetch.New(fetch.Options{
		RPS:   100,
		Sleep: noSleep,
	})
}

func TestFetch_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			_, _ = w.Write([]byte("<html>ok</html>"))
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	body, err := testClient().Fetch(ctx, ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body: %q", body)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestFetch_BlockedShortCircuits(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := testClient().Fetch(context.Background(), ts.URL)
	if !fetch.IsBlocked(err) {
		t.Fatalf("expected blocked classification, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("403 must not be retried; got %d attempts", hits)
	}
}

func TestFetch_ExhaustedRetriesSurfaceStatus(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := testClient().Fetch(context.Background(), ts.URL)
	var fe *fetch.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Reason != fetch.ReasonStatus || fe.Status != http.StatusBadGateway {
		t.Fatalf("unexpected classification: %+v", fe)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected all 3 attempts, got %d", hits)
	}
}

func TestFetch_RotatesIdentities(t *testing.T) {
	seen := make(chan string, 8)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := testClient()
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), ts.URL); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	close(seen)

	agents := map[string]bool{}
	for ua := range seen {
		if ua == "" {
			t.Fatal("request sent without a User-Agent")
		}
		agents[ua] = true
	}
	if len(agents) < 2 {
		t.Fatalf("expected rotation across the pool, saw %d distinct agents", len(agents))
	}
}

func TestFetch_ContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := testClient().Fetch(ctx, ts.URL)
	if err == nil {
		t.Fatal("expected error after context deadline")
	}
}
